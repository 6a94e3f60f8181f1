package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"untethered/internal/services"
)

type statusReport struct {
	Device      string `json:"device"`
	Zone        int    `json:"zone"`
	Connected   bool   `json:"connected"`
	Observed    bool   `json:"observed"`
	State       string `json:"state,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FileKey     string `json:"file_key,omitempty"`
	Position    int    `json:"position"`
	DisplayMode int    `json:"display_mode"`
	Fullscreen  bool   `json:"fullscreen"`
	Error       string `json:"error,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what each device is currently playing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opCtx, cancel := ctx.operationContext(cmd.Context(), cfg)
			defer cancel()
			targets, err := ctx.targets(opCtx, cfg)
			if err != nil {
				return err
			}

			reports := make([]statusReport, 0, len(targets))
			var failed error
			for _, target := range targets {
				report := statusReport{Device: target.engine.String(), Zone: target.device.Zone, Position: -1}
				deviceCtx := services.WithDevice(opCtx, target.device.Address)
				deviceCtx = services.WithZone(deviceCtx, target.device.Zone)
				status, observed, err := target.engine.Status(deviceCtx)
				if err == nil {
					report.Observed = observed
					report.State = string(status.State)
					report.FileName = status.FileName
					report.FileKey = status.FileKey
					report.Position, err = target.engine.Position(deviceCtx)
				}
				if err == nil {
					report.DisplayMode, err = target.engine.DisplayMode(deviceCtx)
					report.Fullscreen = report.DisplayMode == 2
				}
				if err != nil {
					report.Error = err.Error()
					failed = err
				}
				report.Connected = target.engine.Connected()
				reports = append(reports, report)
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
					return err
				}
				return failed
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for i, report := range reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(report.Device, colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range statusLines(report, cfg.Chart.Name, colorize) {
					fmt.Fprintln(out, line)
				}
			}
			return failed
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func statusLines(report statusReport, chart string, colorize bool) []string {
	if report.Error != "" {
		return []string{
			renderStatusLine("Connected", statusError, yesNo(report.Connected), colorize),
			renderStatusLine("Error", statusError, report.Error, colorize),
		}
	}
	lines := []string{renderStatusLine("Connected", statusOK, yesNo(report.Connected), colorize)}
	zone := "ignored"
	if report.Zone >= 0 {
		zone = strconv.Itoa(report.Zone)
	}
	lines = append(lines, renderStatusLine("Zone", statusInfo, zone, colorize))
	if !report.Observed {
		return append(lines, renderStatusLine("Playback", statusWarn, "no status reported", colorize))
	}

	lines = append(lines,
		renderStatusLine("State", playbackKind(report.State, report.FileName, chart), report.State, colorize),
		renderStatusLine("File", statusInfo, fmt.Sprintf("%s (key %s)", report.FileName, report.FileKey), colorize),
		renderStatusLine("Position", statusInfo, strconv.Itoa(report.Position), colorize),
	)
	displayKind := statusWarn
	if report.Fullscreen {
		displayKind = statusOK
	}
	return append(lines, renderStatusLine("Fullscreen", displayKind, yesNo(report.Fullscreen), colorize))
}
