package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/wora/internal/scan"
	"github.com/mmcdole/wora/internal/tui"
)

var browseWatch bool

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the library in an interactive TUI",
	Long: `
Browse albums, songs and playlists in an interactive TUI.

Use arrow keys or hjkl to navigate, Enter to open or play, / to search,
s to sort and v to switch between grid, list and compact views.`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVarP(&browseWatch, "watch", "w", false, "rescan the music folder when it changes")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("browse needs an interactive terminal; try `wora albums` instead")
	}

	return withApp(func(ctx context.Context, a *app) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		if browseWatch || a.cfg.Library.Watch {
			go watchLibrary(ctx, a, nil)
		}

		model := tui.NewModel(ctx, a.newSession(), a.logger)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		a.logger.Info("starting TUI")
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			a.logger.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}

// watchLibrary rescans the music folder on changes until ctx is done.
// done, if set, is called after every rescan.
func watchLibrary(ctx context.Context, a *app, done func(res scanOutcome)) error {
	dir := a.cfg.Library.MusicDir
	w := scan.NewWatcher(dir, scan.DefaultWatchDelay, func() {
		res, err := a.library.ScanLibrary(ctx, dir, nil)
		if err != nil {
			a.logger.Error("rescan failed", "error", err, "dir", dir)
		}
		if done != nil {
			done(scanOutcome{result: res, err: err})
		}
	}, a.logger)

	if err := w.Run(ctx); err != nil {
		a.logger.Error("watcher stopped", "error", err, "dir", dir)
		return err
	}
	return nil
}
