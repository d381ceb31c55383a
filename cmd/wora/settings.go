package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/wora/internal/domain"
)

var settingsUpdate domain.SettingsUpdate

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change user settings",
	Long: `
Show the stored user settings. Pass --language or --name to change them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			session := a.newSession()

			var settings *domain.Settings
			var err error
			if settingsUpdate != (domain.SettingsUpdate{}) {
				settings, err = session.UpdateSettings(ctx, settingsUpdate)
			} else {
				settings, err = session.Settings(ctx)
			}
			if err != nil {
				return err
			}

			name := settings.Name
			if name == "" {
				name = "(not set)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:     %s\n", name)
			fmt.Fprintf(out, "language: %s\n", settings.Language)
			return nil
		})
	},
}

func init() {
	settingsCmd.Flags().StringVar(&settingsUpdate.Language, "language", "", "interface language (en or es)")
	settingsCmd.Flags().StringVar(&settingsUpdate.Name, "name", "", "profile name")
	rootCmd.AddCommand(settingsCmd)
}
