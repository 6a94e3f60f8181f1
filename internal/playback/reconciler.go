package playback

import (
	"context"
	"net/url"
	"time"

	"untethered/internal/logging"
)

type action int

const (
	actionSetZone action = iota
	actionPlay
	actionPause
	actionSetupDisplay
	actionHold
	actionAwaitLoad
	actionBackoff
	actionRestart
	actionStart
)

func (a action) String() string {
	switch a {
	case actionSetZone:
		return "set_zone"
	case actionPlay:
		return "play"
	case actionPause:
		return "pause"
	case actionSetupDisplay:
		return "setup_display"
	case actionHold:
		return "hold"
	case actionAwaitLoad:
		return "await_load"
	case actionBackoff:
		return "backoff"
	case actionRestart:
		return "restart"
	case actionStart:
		return "start"
	default:
		return "unknown"
	}
}

const (
	loadBackoff    = time.Second
	stateBackoff   = 500 * time.Millisecond
	clearSettle    = 100 * time.Millisecond
	playbackSettle = 500 * time.Millisecond
)

// step is the outcome of one transition decision.
type step struct {
	action action
	// delay is the unscaled wait after the action.
	delay time.Duration
}

func (s step) terminal() bool {
	return s.action == actionSetupDisplay || s.action == actionHold
}

// decide maps one observation to the next action. observed is false when the
// poll returned no status. suppressTransient disables the Media Center backoff.
func decide(status Status, observed bool, chart string, needsDisplaySetup, suppressTransient bool) step {
	if !observed {
		return step{action: actionStart, delay: playbackSettle}
	}
	if status.State == StateWrongZone {
		return step{action: actionSetZone, delay: zoneSettle}
	}
	if status.FileName == "" {
		return step{action: actionStart, delay: playbackSettle}
	}
	if status.FileName == chart {
		switch {
		case status.State == StateStopped:
			return step{action: actionPlay}
		case status.State == StatePlaying:
			return step{action: actionPause}
		case status.State == StatePaused && needsDisplaySetup:
			return step{action: actionSetupDisplay}
		case status.State == StatePaused:
			return step{action: actionHold}
		case status.State.Transient():
			return step{action: actionAwaitLoad, delay: loadBackoff}
		default:
			return step{action: actionBackoff, delay: stateBackoff}
		}
	}
	if status.FileName == mediaCenterName && !suppressTransient {
		return step{action: actionBackoff, delay: stateBackoff}
	}
	return step{action: actionRestart, delay: playbackSettle}
}

// EnsurePlaying drives the device until the chart is loaded and paused.
func (e *Engine) EnsurePlaying(ctx context.Context) error {
	return e.reconcile(ctx, DefaultConvergeRetries, false)
}

func (e *Engine) reconcile(ctx context.Context, budget int, suppressTransient bool) error {
	for {
		if err := e.checkContext(ctx, "reconcile"); err != nil {
			return err
		}
		status, observed, err := e.Status(ctx)
		if err != nil {
			return err
		}
		next := decide(status, observed, e.opts.ChartName, e.needsDisplaySetup, suppressTransient)
		// Only the first poll of a reconcile honours suppression.
		suppressTransient = false

		if next.terminal() {
			if next.action == actionSetupDisplay {
				if err := e.setupDisplay(ctx); err != nil {
					return err
				}
				e.needsDisplaySetup = false
			}
			e.log(ctx).Info("chart paused", logging.String("action", next.action.String()))
			return nil
		}

		if budget <= 0 {
			return &ConvergenceError{Chart: e.opts.ChartName, Observed: observed, Last: status}
		}
		budget--

		e.log(ctx).Info("reconcile step",
			logging.String("state", string(status.State)),
			logging.String("action", next.action.String()),
			logging.Int("retries_left", budget),
		)
		if err := e.apply(ctx, next); err != nil {
			return err
		}
	}
}

func (e *Engine) apply(ctx context.Context, next step) error {
	switch next.action {
	case actionSetZone:
		return e.activateZone(ctx)
	case actionPlay:
		_, err := e.call(ctx, "Playback/Play", nil, true)
		return err
	case actionPause:
		_, err := e.call(ctx, "Playback/Pause", url.Values{"State": {"1"}}, true)
		return err
	case actionAwaitLoad:
		e.needsDisplaySetup = true
		return e.pause(ctx, e.opts.scaled(next.delay))
	case actionBackoff:
		return e.pause(ctx, e.opts.scaled(next.delay))
	case actionRestart:
		key, err := e.fileKey(ctx)
		if err != nil {
			return err
		}
		if _, err := e.call(ctx, "Playback/ClearPlaylist", nil, false); err != nil {
			return err
		}
		if err := e.pause(ctx, e.opts.scaled(clearSettle)); err != nil {
			return err
		}
		return e.playByKey(ctx, key, next.delay)
	case actionStart:
		key, err := e.fileKey(ctx)
		if err != nil {
			return err
		}
		return e.playByKey(ctx, key, next.delay)
	}
	return nil
}

func (e *Engine) fileKey(ctx context.Context) (string, error) {
	return e.locator.FindFileKey(ctx, e.opts.ChartName, string(e.opts.Episode()))
}

func (e *Engine) playByKey(ctx context.Context, key string, settle time.Duration) error {
	e.log(ctx).Info("initiating playback", logging.String("file_key", key))
	if _, err := e.call(ctx, "Playback/PlayByKey", url.Values{"Key": {key}}, true); err != nil {
		return err
	}
	return e.pause(ctx, e.opts.scaled(settle))
}
