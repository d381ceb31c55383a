package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/config"
	"github.com/mmcdole/wora/internal/library"
	"github.com/mmcdole/wora/internal/log"
	"github.com/mmcdole/wora/internal/player"
	"github.com/mmcdole/wora/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wora",
	Short: "Browse and play your local music library",
	Long: `
wora imports a folder of audio files into a local library and lets you
browse albums, songs and playlists in the terminal.

Run "wora scan" once to import your music, then "wora" to browse.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrowse,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file or directory (default $XDG_CONFIG_HOME/wora)")
}

// app holds the wired backend shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	store    *store.LibraryStore
	library  *library.Service
	player   *player.Launcher
}

func openApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closeLog = log.NullLogger(), func() error { return nil }
	}
	slog.SetDefault(logger)
	logger.Info("starting wora", "version", Version)

	st, err := store.Open(cfg.Library.DBPath)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		store:    st,
		library:  library.NewService(st, cfg.Library.PageSize, logger),
		player:   player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger),
	}, nil
}

// newSession builds the UI-side caches over the library service
func (a *app) newSession() *cache.Session {
	return cache.NewSession(a.library, a.player, cache.Options{
		TTL:         a.cfg.Cache.TTL,
		Debounce:    a.cfg.Cache.SearchDebounce,
		Lookahead:   a.cfg.Cache.Lookahead,
		DefaultSort: a.cfg.DefaultSort(),
		DefaultView: a.cfg.DefaultView(),
		Logger:      a.logger,
	})
}

func (a *app) Close() error {
	a.logger.Info("shutting down")
	return errors.Join(a.store.Close(), a.closeLog())
}

// withApp opens the backend for the duration of fn, cancelling on interrupt
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, a)
}
