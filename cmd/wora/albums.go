package main

import (
	"context"

	"github.com/spf13/cobra"
)

var albumFlags listFlags

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List albums",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			albums := a.newSession().Albums
			items, err := project(ctx, albums, albumFlags)
			if err != nil {
				return err
			}
			st := albums.State()
			printSearchState(cmd.OutOrStdout(), st)
			printRecords(cmd.OutOrStdout(), items, st.HasMore && !st.Search.Active)
			return nil
		})
	},
}

func init() {
	albumFlags.register(albumsCmd)
	rootCmd.AddCommand(albumsCmd)
}
