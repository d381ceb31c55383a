// Package player hands song queues to an external audio player.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mmcdole/wora/internal/domain"
)

// queueFlags describes how a player accepts a queue
type queueFlags struct {
	start   string   // start index flag prefix; empty means rotate the queue instead
	shuffle string   // shuffle flag; empty means shuffle is not supported
	extra   []string // always passed, e.g. to keep the player headless
}

// players registry, keyed by executable base name
var players = map[string]queueFlags{
	"mpv":       {start: "--playlist-start=", shuffle: "--shuffle", extra: []string{"--no-video"}},
	"celluloid": {start: "--mpv-playlist-start=", shuffle: "--mpv-shuffle"},
	"haruna":    {},
	"vlc":       {shuffle: "--random", extra: []string{"--play-and-exit"}},
	"iina":      {start: "--mpv-playlist-start=", shuffle: "--mpv-shuffle"},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "iina", "vlc"},
	"linux":   {"mpv", "celluloid", "haruna", "vlc"},
	"windows": {"mpv", "vlc"},
}

// Launcher plays queues in the configured player, or the first installed candidate
type Launcher struct {
	command string
	args    []string
	logger  *slog.Logger

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

// NewLauncher creates a Launcher. An empty command enables auto-detection.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		logger:   logger,
		lookPath: exec.LookPath,
		start:    (*exec.Cmd).Start,
	}
}

// PlayQueue starts playback of songs beginning at index start. The player
// runs detached; PlayQueue returns once it has been spawned.
func (l *Launcher) PlayQueue(ctx context.Context, songs []*domain.Song, start int, shuffle bool) error {
	if len(songs) == 0 || start < 0 || start >= len(songs) {
		return fmt.Errorf("%w: start %d of %d songs", domain.ErrInvalidInput, start, len(songs))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	command, err := l.resolve()
	if err != nil {
		return err
	}

	args := buildArgs(playerName(command), l.args, paths(songs), start, shuffle)
	l.logger.Info("launching player", "command", command, "songs", len(songs), "start", start, "shuffle", shuffle)

	// Not tied to ctx: the player outlives the request that started it
	cmd := exec.Command(command, args...)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("start %s: %w", command, err)
	}
	return nil
}

// resolve picks the configured command or the first candidate found in PATH
func (l *Launcher) resolve() (string, error) {
	if l.command != "" {
		return l.command, nil
	}

	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}
	for _, name := range candidates {
		path, err := l.lookPath(name)
		if err == nil {
			l.logger.Debug("detected player", "player", name, "path", path)
			return path, nil
		}
		l.logger.Debug("player not available", "player", name, "error", err)
	}
	return "", domain.ErrNoPlayer
}

func playerName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// buildArgs assembles the argument list for a known or unknown player.
// Unknown players get the queue rotated so the start song comes first.
func buildArgs(name string, userArgs, queue []string, start int, shuffle bool) []string {
	flags, known := players[name]

	args := append([]string{}, flags.extra...)
	args = append(args, userArgs...)

	if shuffle && flags.shuffle != "" {
		args = append(args, flags.shuffle)
	}
	if known && flags.start != "" {
		if start > 0 {
			args = append(args, flags.start+strconv.Itoa(start))
		}
		return append(args, queue...)
	}

	args = append(args, queue[start:]...)
	return append(args, queue[:start]...)
}

func paths(songs []*domain.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Path
	}
	return out
}
