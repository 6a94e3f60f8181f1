package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"untethered/internal/playback"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List configured devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ids := make([]playback.Identity, 0, len(cfg.Devices))
			zones := make(map[playback.Identity][]string)
			for _, device := range cfg.Devices {
				id := playback.OptionsFromConfig(cfg, device).Identity()
				ids = append(ids, id)
				zone := "ignored"
				if device.Zone != playback.IgnoreZone {
					zone = strconv.Itoa(device.Zone)
				}
				zones[id] = append(zones[id], zone)
			}

			unique := playback.UniqueIdentities(ids...)
			rows := make([][]string, 0, len(unique))
			for i, id := range unique {
				scheme := "http"
				if id.Secure {
					scheme = "https"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), id.String(), scheme, strings.Join(zones[id], ", ")})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(deviceColumns, rows, shouldColorize(out)))
			fmt.Fprintf(out, "Chart: %s (%s), %d units per patch\n", cfg.Chart.Name, cfg.Episode(), cfg.Chart.PatchDuration)
			return nil
		},
	}
}

