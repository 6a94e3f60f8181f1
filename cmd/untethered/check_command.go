package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"untethered/internal/preflight"
	"untethered/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, server access, and the chart before a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			devices, err := cfg.SelectDevices(ctx.flags.device)
			if err != nil {
				return services.Wrap(services.ErrValidation, "cli", "select device", "", err)
			}
			opCtx, cancel := ctx.operationContext(cmd.Context(), cfg)
			defer cancel()

			results := preflight.RunAll(opCtx, cfg, devices, ctx.ensureLogger())

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
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrExternalTool, "cli", "check", fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), nil)
			}
			return nil
		},
	}
}
