package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	songFlags    listFlags
	songsPlay    bool
	songsShuffle bool
)

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "List or play songs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			session := a.newSession()
			items, err := project(ctx, session.Songs, songFlags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if songsPlay || songsShuffle {
				if err := session.PlaySongs(ctx, items, 0, songsShuffle); err != nil {
					return err
				}
				fmt.Fprintf(out, "Playing %d songs\n", len(items))
				return nil
			}

			st := session.Songs.State()
			printSearchState(out, st)
			printRecords(out, items, st.HasMore && !st.Search.Active)
			return nil
		})
	},
}

func init() {
	songFlags.register(songsCmd)
	songsCmd.Flags().BoolVarP(&songsPlay, "play", "p", false, "play the listed songs")
	songsCmd.Flags().BoolVar(&songsShuffle, "shuffle", false, "play the listed songs shuffled")
	rootCmd.AddCommand(songsCmd)
}
