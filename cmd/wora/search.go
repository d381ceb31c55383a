package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search artists, albums, songs and playlists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			query := strings.Join(args, " ")
			res, err := a.newSession().GlobalSearch(ctx, query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Empty() {
				fmt.Fprintf(out, "No results for %q\n", query)
				return nil
			}

			section(out, "Artists", len(res.Artists), func(i int) string {
				return fmt.Sprintf("%s (%d albums)", res.Artists[i].Name, res.Artists[i].AlbumCount)
			})
			section(out, "Albums", len(res.Albums), func(i int) string {
				return res.Albums[i].Name + " · " + res.Albums[i].Artist
			})
			section(out, "Songs", len(res.Songs), func(i int) string {
				s := res.Songs[i]
				return fmt.Sprintf("%s · %s [%s]", s.Name, s.Artist, s.ID)
			})
			section(out, "Playlists", len(res.Playlists), func(i int) string {
				return fmt.Sprintf("%s (%d songs)", res.Playlists[i].Name, res.Playlists[i].SongCount())
			})
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func section(w io.Writer, title string, n int, line func(i int) string) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", title)
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "  %s\n", line(i))
	}
	fmt.Fprintln(w)
}
