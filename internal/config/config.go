package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmcdole/wora/internal/domain"
)

const appName = "wora"

// Config holds all application configuration
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Cache   CacheConfig   `mapstructure:"cache"`
	UI      UIConfig      `mapstructure:"ui"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LibraryConfig holds backend library configuration
type LibraryConfig struct {
	DBPath   string `mapstructure:"db_path"`
	MusicDir string `mapstructure:"music_dir"`
	PageSize int    `mapstructure:"page_size"`
	Watch    bool   `mapstructure:"watch"` // rescan when the music folder changes
}

// CacheConfig tunes the in-memory collection caches
type CacheConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	Lookahead      int           `mapstructure:"lookahead"` // rows from the end that trigger the next page
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultView  string `mapstructure:"default_view"`
	DefaultSort  string `mapstructure:"default_sort"`
	DefaultOrder string `mapstructure:"default_order"`
}

// PlayerConfig holds audio player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			DBPath:   filepath.Join(xdg.DataHome, appName, "library.db"),
			MusicDir: xdg.UserDirs.Music,
			PageSize: 50,
		},
		Cache: CacheConfig{
			TTL:            5 * time.Minute,
			SearchDebounce: 300 * time.Millisecond,
			Lookahead:      10,
		},
		UI: UIConfig{
			DefaultView:  string(domain.ViewGrid),
			DefaultSort:  string(domain.SortByName),
			DefaultOrder: string(domain.SortAsc),
		},
		Player: PlayerConfig{
			Command: "",
			Args:    []string{},
		},
		Logging: LoggingConfig{
			File:  filepath.Join(xdg.StateHome, appName, "wora.log"),
			Level: "INFO",
		},
	}
}

// Dir returns the default config directory
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("library.db_path", cfg.Library.DBPath)
	v.SetDefault("library.music_dir", cfg.Library.MusicDir)
	v.SetDefault("library.page_size", cfg.Library.PageSize)
	v.SetDefault("library.watch", cfg.Library.Watch)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.search_debounce", cfg.Cache.SearchDebounce)
	v.SetDefault("cache.lookahead", cfg.Cache.Lookahead)
	v.SetDefault("ui.default_view", cfg.UI.DefaultView)
	v.SetDefault("ui.default_sort", cfg.UI.DefaultSort)
	v.SetDefault("ui.default_order", cfg.UI.DefaultOrder)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from a .env file, the config file and the
// environment. path may name a config file or a directory; empty means the
// XDG config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is the normal case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	switch {
	case path == "":
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	case isDir(path):
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(path)
	default:
		v.SetConfigFile(path)
	}

	// Environment variable overrides, e.g. WORA_LIBRARY_MUSIC_DIR
	v.SetEnvPrefix("WORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && !isDir(path) && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Library.DBPath = expandHome(cfg.Library.DBPath)
	cfg.Library.MusicDir = expandHome(cfg.Library.MusicDir)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the application cannot run with
func (c *Config) Validate() error {
	if c.Library.PageSize <= 0 {
		return fmt.Errorf("library.page_size must be positive, got %d", c.Library.PageSize)
	}
	if c.Cache.Lookahead < 0 {
		return fmt.Errorf("cache.lookahead must not be negative, got %d", c.Cache.Lookahead)
	}
	if _, err := domain.ParseViewMode(c.UI.DefaultView); err != nil {
		return fmt.Errorf("ui.default_view: %w", err)
	}
	if _, err := domain.ParseSort(c.UI.DefaultSort, c.UI.DefaultOrder); err != nil {
		return fmt.Errorf("ui.default_sort: %w", err)
	}
	return nil
}

// DefaultSort returns the configured initial sort
func (c *Config) DefaultSort() domain.SortState {
	s, err := domain.ParseSort(c.UI.DefaultSort, c.UI.DefaultOrder)
	if err != nil {
		return domain.DefaultSort
	}
	return s
}

// DefaultView returns the configured initial view mode
func (c *Config) DefaultView() domain.ViewMode {
	m, err := domain.ParseViewMode(c.UI.DefaultView)
	if err != nil {
		return domain.ViewGrid
	}
	return m
}

// SaveConfig writes cfg as config.yaml into dir (the default directory when empty)
func SaveConfig(cfg *Config, dir string) error {
	if dir == "" {
		dir = Dir()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("library.db_path", cfg.Library.DBPath)
	v.Set("library.music_dir", cfg.Library.MusicDir)
	v.Set("library.page_size", cfg.Library.PageSize)
	v.Set("library.watch", cfg.Library.Watch)

	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("cache.search_debounce", cfg.Cache.SearchDebounce.String())
	v.Set("cache.lookahead", cfg.Cache.Lookahead)

	v.Set("ui.default_view", cfg.UI.DefaultView)
	v.Set("ui.default_sort", cfg.UI.DefaultSort)
	v.Set("ui.default_order", cfg.UI.DefaultOrder)

	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
