package playback

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"untethered/internal/logging"
	"untethered/internal/services"
	"untethered/internal/services/mcws"
)

// Gateway issues device commands and queries.
type Gateway interface {
	// Call returns an error only when no session can be established.
	Call(ctx context.Context, path string, params url.Values) (mcws.Response, error)
	Connected() bool
}

// Locator resolves the chart to a library file key.
type Locator interface {
	FindFileKey(ctx context.Context, chart, episode string) (string, error)
}

// Engine reconciles one device zone toward a paused chart.
type Engine struct {
	opts    Options
	gw      Gateway
	locator Locator
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration) error

	// needsDisplaySetup is set until fullscreen and the overlay have been
	// applied to a paused chart, and again whenever the chart reloads.
	needsDisplaySetup bool
}

// New constructs an Engine on top of an existing gateway and locator.
func New(opts Options, gw Gateway, locator Locator, logger *slog.Logger) *Engine {
	if opts.PatchReads < 1 {
		opts.PatchReads = 1
	}
	e := &Engine{
		opts:              opts,
		gw:                gw,
		locator:           locator,
		logger:            logging.NewComponentLogger(logger, "playback"),
		sleep:             sleepContext,
		needsDisplaySetup: true,
	}
	e.logger.Info("playback engine configured",
		logging.String(logging.FieldDevice, opts.Address),
		logging.String(logging.FieldChart, opts.ChartName),
		logging.String("episode", string(opts.Episode())),
		logging.Int("zone", opts.Zone),
	)
	return e
}

// NewForDevice constructs an Engine backed by an MCWS HTTP client.
func NewForDevice(opts Options, logger *slog.Logger, clientOpts ...mcws.Option) *Engine {
	var creds *mcws.Credentials
	if opts.Username != "" {
		creds = &mcws.Credentials{Username: opts.Username, Password: opts.Password}
	}
	clientOpts = append([]mcws.Option{mcws.WithLogger(logger)}, clientOpts...)
	client := mcws.NewClient(opts.Address, opts.Secure, creds, clientOpts...)
	return New(opts, client, client, logger)
}

// Connected reports whether the device session has been established.
func (e *Engine) Connected() bool {
	return e.gw.Connected()
}

// Identity returns the connection identity of the device.
func (e *Engine) Identity() Identity {
	return e.opts.Identity()
}

// PatchReads returns the configured number of meter reads per patch.
func (e *Engine) PatchReads() int {
	return e.opts.PatchReads
}

// Host returns the opaque handle supplied in Options.
func (e *Engine) Host() any {
	return e.opts.Host
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) String() string {
	return e.Identity().String()
}

// call issues a command, adding the zone when zoned and a zone is selected.
func (e *Engine) call(ctx context.Context, path string, params url.Values, zoned bool) (mcws.Response, error) {
	if params == nil {
		params = url.Values{}
	}
	if zoned && e.opts.Zone != IgnoreZone {
		params.Set("Zone", strconv.Itoa(e.opts.Zone))
	}
	resp, err := e.gw.Call(ctx, path, params)
	if err != nil {
		return resp, err
	}
	if resp.OK() {
		e.log(ctx).Debug("device command ok", logging.String("path", path))
	} else {
		e.log(ctx).Debug("device command failed", logging.String("path", path), logging.String("outcome", resp.Outcome.String()))
	}
	return resp, nil
}

// log returns the engine logger carrying the run fields of ctx. Device, zone,
// and chart fall back to the engine's own target when ctx does not name them.
func (e *Engine) log(ctx context.Context) *slog.Logger {
	if _, ok := services.DeviceFromContext(ctx); !ok {
		ctx = services.WithDevice(ctx, e.opts.Address)
	}
	if _, ok := services.ZoneFromContext(ctx); !ok {
		ctx = services.WithZone(ctx, e.opts.Zone)
	}
	if _, ok := services.ChartFromContext(ctx); !ok {
		ctx = services.WithChart(ctx, e.opts.ChartName)
	}
	return logging.WithContext(ctx, e.logger)
}

func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	if err := e.sleep(ctx, d); err != nil {
		return services.Wrap(services.ErrTimeout, "playback", "wait", "interrupted", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) checkContext(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTimeout, "playback", operation, fmt.Sprintf("%s cancelled", e.opts.ChartName), err)
	}
	return nil
}
