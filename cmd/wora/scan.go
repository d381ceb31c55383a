package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/wora/internal/domain"
)

var scanWatch bool

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Import a music folder into the library",
	Long: `
Walk a music folder, read the tags of every audio file and replace the
library with what was found. Defaults to library.music_dir from the config.

With --watch the folder is rescanned whenever files change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if len(args) == 1 {
				a.cfg.Library.MusicDir = args[0]
			}
			if a.cfg.Library.MusicDir == "" {
				return fmt.Errorf("%w: no music folder given and library.music_dir is not set", domain.ErrInvalidInput)
			}
			out := cmd.OutOrStdout()

			res, err := a.library.ScanLibrary(ctx, a.cfg.Library.MusicDir, progressPrinter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			printScan(out, res)

			if !scanWatch {
				return nil
			}
			fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", res.Root)
			return watchLibrary(ctx, a, func(o scanOutcome) {
				if o.err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Rescan failed: %v\n", o.err)
					return
				}
				printScan(out, o.result)
			})
		})
	},
}

func init() {
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "keep running and rescan on changes")
	rootCmd.AddCommand(scanCmd)
}

type scanOutcome struct {
	result *domain.ScanResult
	err    error
}

// progressPrinter redraws a single status line when w is a terminal
func progressPrinter(w io.Writer) domain.ProgressFunc {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func(seen, imported int) {
		if seen%25 == 0 {
			fmt.Fprintf(w, "\rScanning... %d files, %d songs", seen, imported)
		}
	}
}

func printScan(w io.Writer, res *domain.ScanResult) {
	fmt.Fprintf(w, "\r%-40s\r", "")
	fmt.Fprintf(w, "Imported %d albums and %d songs from %s", res.Albums, res.Songs, res.Root)
	if res.Skipped > 0 {
		fmt.Fprintf(w, " (%d files skipped)", res.Skipped)
	}
	fmt.Fprintln(w)
}
