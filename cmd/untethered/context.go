package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"untethered/internal/config"
	"untethered/internal/devicelock"
	"untethered/internal/history"
	"untethered/internal/logging"
	"untethered/internal/playback"
	"untethered/internal/services"
)

type commandContext struct {
	flags *rootFlags
	runID string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{
		flags: flags,
		runID: uuid.NewString(),
	}
}

func (c *commandContext) configPath() string {
	if c.flags == nil {
		return ""
	}
	return strings.TrimSpace(c.flags.config)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// operationContext applies the configured wall-clock bound.
func (c *commandContext) operationContext(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	timeout := c.flags.timeout
	if timeout <= 0 && cfg.Timing.ConvergeTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Timing.ConvergeTimeoutSeconds) * time.Second
	}
	ctx := services.WithRequestID(parent, c.runID)
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// deviceTarget is one selected device and the engine driving it.
type deviceTarget struct {
	device config.Device
	engine *playback.Engine
}

// targets builds engines for the selected devices, skipping duplicate identities.
// Engines log with the run fields carried by the context of each call.
func (c *commandContext) targets(ctx context.Context, cfg *config.Config) ([]deviceTarget, error) {
	devices, err := cfg.SelectDevices(c.flags.device)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "cli", "select device", "", err)
	}
	logger := c.ensureLogger()
	seen := make(map[playback.Identity]struct{}, len(devices))
	targets := make([]deviceTarget, 0, len(devices))
	for _, device := range devices {
		opts := playback.OptionsFromConfig(cfg, device)
		if _, dup := seen[opts.Identity()]; dup {
			logging.WithContext(ctx, logger).Info("skipping duplicate device", logging.String(logging.FieldDevice, opts.Identity().String()))
			continue
		}
		seen[opts.Identity()] = struct{}{}
		targets = append(targets, deviceTarget{device: device, engine: playback.NewForDevice(opts, logger)})
	}
	return targets, nil
}

// forEachDevice runs fn against every selected device while holding its zone
// lock, recording history through the returned recorder.
func (c *commandContext) forEachDevice(cmd *cobra.Command, fn func(context.Context, deviceTarget, *recorder) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx, cancel := c.operationContext(cmd.Context(), cfg)
	defer cancel()

	targets, err := c.targets(ctx, cfg)
	if err != nil {
		return err
	}

	rec := c.openRecorder(ctx, cfg)
	defer rec.close()

	var errs []error
	for _, target := range targets {
		deviceCtx := services.WithDevice(ctx, target.device.Address)
		deviceCtx = services.WithZone(deviceCtx, target.device.Zone)
		deviceCtx = services.WithChart(deviceCtx, cfg.Chart.Name)

		lock, err := devicelock.Acquire(deviceCtx, cfg.Paths.StateDir, target.device.Address, target.device.Zone, c.flags.lockWait)
		if err != nil {
			errs = append(errs, services.Wrap(services.ErrTransient, "cli", "lock device", target.engine.String(), err))
			continue
		}
		err = fn(deviceCtx, target, rec)
		if releaseErr := lock.Release(); releaseErr != nil {
			logging.WarnWithContext(logging.WithContext(deviceCtx, c.ensureLogger()), "failed to release device lock", "device_lock",
				logging.String("lock", lock.Path()), logging.Error(releaseErr))
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = services.Wrap(services.ErrTimeout, "cli", "device operation", target.engine.String(), err)
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// recorder appends history events; storage failures are logged, never fatal.
type recorder struct {
	store  *history.Store
	runID  string
	cfg    *config.Config
	logger *slog.Logger
}

func (c *commandContext) openRecorder(ctx context.Context, cfg *config.Config) *recorder {
	rec := &recorder{runID: c.runID, cfg: cfg, logger: c.ensureLogger()}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, rec.logger), "history unavailable", "history_open",
			logging.Error(err), logging.String(logging.FieldImpact, "events will not be recorded"))
		return rec
	}
	rec.store = store
	return rec
}

func (r *recorder) record(ctx context.Context, target deviceTarget, kind history.Kind, patch int, started time.Time, opErr error) {
	if r == nil || r.store == nil {
		return
	}
	event := history.Event{
		RunID:          r.runID,
		Kind:           kind,
		Device:         target.engine.String(),
		Zone:           target.device.Zone,
		Chart:          r.cfg.Chart.Name,
		Episode:        r.cfg.Episode(),
		PatchIndex:     -1,
		TargetPosition: -1,
		Outcome:        history.OutcomeOK,
		Duration:       time.Since(started),
	}
	if kind == history.KindPatch {
		event.PatchIndex = patch
		event.TargetPosition = playback.TargetPosition(patch, r.cfg.Chart.PatchDuration)
	}
	if opErr != nil {
		event.Outcome = history.OutcomeFailed
		event.ErrorMessage = opErr.Error()
	}
	// Record even when the operation context has expired.
	if _, err := r.store.Record(context.WithoutCancel(ctx), event); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "failed to record history event", "history_record", logging.Error(err))
	}
}

func (r *recorder) close() {
	if r != nil && r.store != nil {
		_ = r.store.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
