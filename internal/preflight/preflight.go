package preflight

import (
	"context"
	"log/slog"

	"untethered/internal/config"
	"untethered/internal/playback"
	"untethered/internal/services/mcws"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks followed by the device and chart checks
// for every given device. Devices sharing an identity are checked once.
func RunAll(ctx context.Context, cfg *config.Config, devices []config.Device, logger *slog.Logger, clientOpts ...mcws.Option) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	seen := make(map[playback.Identity]struct{}, len(devices))
	for _, device := range devices {
		opts := playback.OptionsFromConfig(cfg, device)
		if _, dup := seen[opts.Identity()]; dup {
			continue
		}
		seen[opts.Identity()] = struct{}{}
		results = append(results, CheckDevice(ctx, opts, logger, clientOpts...)...)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
