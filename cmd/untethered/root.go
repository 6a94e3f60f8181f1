package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "untethered",
		Short:         "Drive a media server through calibration patches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	pf.StringVarP(&flags.device, "device", "d", "", "Device address or 1-based index (default: all configured devices)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Abort device operations after this long (overrides timing.converge_timeout_seconds)")
	pf.DurationVar(&flags.lockWait, "lock-wait", 0, "Wait this long for another process to release the device zone")
	pf.StringVar(&flags.logLevel, "log-level", "", "Override logging.level")

	rootCmd.AddCommand(newPlayCommand(ctx))
	rootCmd.AddCommand(newPatchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newDevicesCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

type rootFlags struct {
	config   string
	device   string
	timeout  time.Duration
	lockWait time.Duration
	logLevel string
}
