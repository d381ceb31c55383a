package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
)

var (
	playlistDescription string
	playlistShuffle     bool
)

var playlistsCmd = &cobra.Command{
	Use:     "playlists",
	Aliases: []string{"playlist", "pl"},
	Short:   "Manage playlists",
	Long: `
Manage playlists. Playlists may be referred to by id or by name.`,
	Args: cobra.NoArgs,
	RunE: runPlaylistsList,
}

var playlistsListCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List playlists, optionally fuzzy-filtered by name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlaylistsList,
}

var playlistsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
			pl, err := p.Create(ctx, domain.PlaylistInput{Name: args[0], Description: playlistDescription})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", pl.Name, pl.ID)
			return nil
		})
	},
}

var playlistsRenameCmd = &cobra.Command{
	Use:   "rename <playlist> <name>",
	Short: "Rename a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
			pl, err := findPlaylist(ctx, p, args[0])
			if err != nil {
				return err
			}
			desc := pl.Description
			if cmd.Flags().Changed("description") {
				desc = playlistDescription
			}
			updated, err := p.Update(ctx, pl.ID, domain.PlaylistInput{Name: args[1], Description: desc})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", pl.Name, updated.Name)
			return nil
		})
	},
}

var playlistsDeleteCmd = &cobra.Command{
	Use:   "delete <playlist>",
	Short: "Delete a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
			pl, err := findPlaylist(ctx, p, args[0])
			if err != nil {
				return err
			}
			if err := p.Delete(ctx, pl.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", pl.Name)
			return nil
		})
	},
}

var playlistsAddCmd = &cobra.Command{
	Use:   "add <playlist> <song-id>",
	Short: "Append a song to a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
			pl, err := findPlaylist(ctx, p, args[0])
			if err != nil {
				return err
			}
			if err := p.AddSong(ctx, pl.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %q\n", args[1], pl.Name)
			return nil
		})
	},
}

var playlistsRemoveCmd = &cobra.Command{
	Use:   "remove <playlist> <song-id>",
	Short: "Remove a song from a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
			pl, err := findPlaylist(ctx, p, args[0])
			if err != nil {
				return err
			}
			if err := p.RemoveSong(ctx, pl.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %q\n", args[1], pl.Name)
			return nil
		})
	},
}

var playlistsShowCmd = &cobra.Command{
	Use:   "show <playlist>",
	Short: "Show the songs of a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
			pl, err := findPlaylist(ctx, p, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d songs)\n", pl.Name, pl.SongCount())
			if pl.Description != "" {
				fmt.Fprintln(out, pl.Description)
			}
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tNAME\tARTIST\tTIME")
			for i, s := range pl.Songs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.ID, s.Name, s.Artist, domain.FormatDuration(s.Duration))
			}
			return tw.Flush()
		})
	},
}

var playlistsPlayCmd = &cobra.Command{
	Use:   "play <playlist>",
	Short: "Play a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			session := a.newSession()
			pl, err := findPlaylist(ctx, session.Playlists, args[0])
			if err != nil {
				return err
			}
			if err := session.PlayPlaylist(ctx, pl.ID, playlistShuffle); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Playing %q\n", pl.Name)
			return nil
		})
	},
}

func init() {
	playlistsCreateCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "playlist description")
	playlistsRenameCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "new description")
	playlistsPlayCmd.Flags().BoolVar(&playlistShuffle, "shuffle", false, "shuffle the playlist")

	playlistsCmd.AddCommand(
		playlistsListCmd,
		playlistsCreateCmd,
		playlistsRenameCmd,
		playlistsDeleteCmd,
		playlistsAddCmd,
		playlistsRemoveCmd,
		playlistsShowCmd,
		playlistsPlayCmd,
	)
	rootCmd.AddCommand(playlistsCmd)
}

func withPlaylists(fn func(ctx context.Context, p *cache.PlaylistCache) error) error {
	return withApp(func(ctx context.Context, a *app) error {
		return fn(ctx, a.newSession().Playlists)
	})
}

func runPlaylistsList(cmd *cobra.Command, args []string) error {
	return withPlaylists(func(ctx context.Context, p *cache.PlaylistCache) error {
		if err := p.EnsureFresh(ctx); err != nil {
			return err
		}
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		playlists := p.Filter(filter)
		out := cmd.OutOrStdout()
		if len(playlists) == 0 {
			fmt.Fprintln(out, "No playlists")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSONGS")
		for _, pl := range playlists {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", pl.ID, pl.Name, pl.SongCount())
		}
		return tw.Flush()
	})
}

// findPlaylist resolves ref as an id, then as a case-insensitive name, and
// returns the playlist with its songs
func findPlaylist(ctx context.Context, p *cache.PlaylistCache, ref string) (*domain.Playlist, error) {
	if err := p.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	for _, pl := range p.Playlists() {
		if pl.ID == ref || strings.EqualFold(pl.Name, ref) {
			return p.Get(ctx, pl.ID)
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrPlaylistNotFound, ref)
}
