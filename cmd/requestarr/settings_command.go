package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"requestarr/internal/logging"
	"requestarr/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect application settings",
	}
	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch and print the public settings snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, client, err := ctx.client(cmd)
			if err != nil {
				return err
			}
			store := settings.New(settings.Default(), client,
				settings.WithLogger(logger),
				settings.WithFetchTimeout(cfg.RequestTimeout()),
			)
			fetchErr := store.Revalidate(cmd.Context())
			snapshot := store.Get()

			if asJSON {
				return writeJSON(cmd, snapshot)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if fetchErr != nil {
				logger.Debug("showing default settings", logging.Error(fetchErr))
				fmt.Fprintln(out, renderStatusLine("Public settings", statusWarn, "fetch failed, showing defaults", colorize))
			}
			fmt.Fprintln(out, renderTable(settingsColumns, settingsRows(snapshot)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func settingsRows(s settings.PublicSettings) [][]string {
	return [][]string{
		{"Initialized", yesNo(s.Initialized)},
		{"Application title", s.ApplicationTitle},
		{"Application URL", s.ApplicationURL},
		{"Locale", s.Locale},
		{"Media server", s.MediaServerType.String()},
		{"Local login", yesNo(s.LocalLogin)},
		{"Hide available", yesNo(s.HideAvailable)},
		{"Movie 4K", yesNo(s.Movie4KEnabled)},
		{"Series 4K", yesNo(s.Series4KEnabled)},
		{"Partial requests", yesNo(s.PartialRequestsEnabled)},
		{"Region", s.Region},
		{"Original language", s.OriginalLanguage},
		{"Cache images", yesNo(s.CacheImages)},
		{"Push registration", yesNo(s.EnablePushRegistration)},
		{"Email", yesNo(s.EmailEnabled)},
		{"VAPID public key", strconv.Quote(s.VapidPublic)},
	}
}
