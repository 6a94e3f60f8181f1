package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"untethered/internal/history"
	"untethered/internal/playback"
	"untethered/internal/services"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Load the chart, pause it, and switch the display to fullscreen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			return ctx.forEachDevice(cmd, func(opCtx context.Context, target deviceTarget, rec *recorder) error {
				started := time.Now()
				err := target.engine.EnsurePlaying(opCtx)
				rec.record(opCtx, target, history.KindPlay, -1, started, err)
				if err != nil {
					fmt.Fprintln(out, renderStatusLine(target.engine.String(), statusError, err.Error(), colorize))
					return err
				}
				fmt.Fprintln(out, renderStatusLine(target.engine.String(), statusOK, "chart paused", colorize))
				return nil
			})
		},
	}
}

func newPatchCommand(ctx *commandContext) *cobra.Command {
	var hold time.Duration

	cmd := &cobra.Command{
		Use:   "patch <index>...",
		Short: "Show one or more patches of the chart",
		Long: "Seek to each patch in turn and verify the server reports the exact patch position.\n" +
			"Use --hold to keep each patch on screen before moving to the next one.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parsePatchIndices(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			return ctx.forEachDevice(cmd, func(opCtx context.Context, target deviceTarget, rec *recorder) error {
				opts := target.engine.Options()
				for i, index := range indices {
					started := time.Now()
					err := target.engine.DisplayPatch(opCtx, index)
					rec.record(opCtx, target, history.KindPatch, index, started, err)
					label := fmt.Sprintf("%s patch %d", target.engine.String(), index)
					if err != nil {
						fmt.Fprintln(out, renderStatusLine(label, statusError, err.Error(), colorize))
						return err
					}
					position := playback.TargetPosition(index, opts.PatchDuration)
					fmt.Fprintln(out, renderStatusLine(label, statusOK, fmt.Sprintf("position %d", position), colorize))
					if hold > 0 && i < len(indices)-1 {
						if err := waitHold(opCtx, hold); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&hold, "hold", 0, "Keep each patch on screen this long before showing the next")
	return cmd
}

func parsePatchIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return nil, services.Wrap(services.ErrValidation, "cli", "parse patch", fmt.Sprintf("invalid patch index %q: must be a non-negative integer", arg), nil)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

func waitHold(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
