package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"untethered/internal/logging"
	"untethered/internal/playback"
	"untethered/internal/services"
	"untethered/internal/services/mcws"
)

const deviceCheckTimeout = 5 * time.Second

// CheckDevice authenticates against the server and locates the configured
// chart. The chart check is skipped when the server cannot be reached.
func CheckDevice(ctx context.Context, opts playback.Options, logger *slog.Logger, clientOpts ...mcws.Option) []Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	id := opts.Identity().String()
	deviceName := "Device " + id
	chartName := fmt.Sprintf("Chart on %s", id)

	var creds *mcws.Credentials
	if opts.Username != "" {
		creds = &mcws.Credentials{Username: opts.Username, Password: opts.Password}
	}
	clientOpts = append([]mcws.Option{mcws.WithLogger(logger)}, clientOpts...)
	client := mcws.NewClient(opts.Address, opts.Secure, creds, clientOpts...)

	checkCtx, cancel := context.WithTimeout(ctx, deviceCheckTimeout)
	defer cancel()

	if err := client.Authenticate(checkCtx); err != nil {
		return []Result{
			{Name: deviceName, Detail: summarizeDeviceError(err)},
			{Name: chartName, Detail: "skipped (device unavailable)"},
		}
	}
	device := Result{Name: deviceName, Passed: true, Detail: "reachable (" + client.BaseURL() + ")"}

	episode := string(opts.Episode())
	key, err := client.FindFileKey(checkCtx, opts.ChartName, episode)
	if err != nil {
		return []Result{device, {Name: chartName, Detail: summarizeDeviceError(err)}}
	}
	return []Result{device, {
		Name:   chartName,
		Passed: true,
		Detail: fmt.Sprintf("%s (%s) is file key %s", opts.ChartName, episode, key),
	}}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeDeviceError produces a human-readable summary for device check failures.
func summarizeDeviceError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out (server unresponsive)"
	case errors.Is(err, services.ErrUnauthorized):
		return "authentication rejected (check username and password)"
	case errors.Is(err, mcws.ErrNoMatchingFile):
		return err.Error()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (server unreachable)"
	}
	if errors.Is(err, mcws.ErrAuthenticationFailed) {
		return "unreachable: " + err.Error()
	}
	return err.Error()
}
