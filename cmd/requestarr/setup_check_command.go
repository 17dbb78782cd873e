package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"requestarr/internal/preflight"
)

var errPreflightFailed = errors.New("preflight checks failed")

func newSetupCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the application, media server, and state directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, err := ctx.client(cmd)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, client)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if !preflight.Passed(results) {
				return errPreflightFailed
			}
			return nil
		},
	}
}
