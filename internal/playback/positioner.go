package playback

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"untethered/internal/logging"
	"untethered/internal/services"
)

const positionRetryDelay = 100 * time.Millisecond

// DisplayPatch shows patch index of the chart and verifies the server reports
// the exact target position.
func (e *Engine) DisplayPatch(ctx context.Context, index int) error {
	if index < 0 {
		return services.Wrap(services.ErrValidation, "playback", "display patch", fmt.Sprintf("negative patch index %d", index), nil)
	}
	if d := e.opts.PatchDuration; d > 0 && index > (math.MaxInt-1)/d {
		return services.Wrap(services.ErrValidation, "playback", "display patch", fmt.Sprintf("patch index %d overflows the chart position", index), nil)
	}
	return e.displayPatch(ctx, index, DefaultPatchRetries)
}

func (e *Engine) displayPatch(ctx context.Context, index, retries int) error {
	target := TargetPosition(index, e.opts.PatchDuration)
	for {
		if err := e.reconcile(ctx, DefaultConvergeRetries, true); err != nil {
			return err
		}
		e.log(ctx).Info("showing patch", logging.Int("patch", index), logging.Int("target", target))
		if _, err := e.call(ctx, "Playback/Position", url.Values{"Position": {strconv.Itoa(target)}}, true); err != nil {
			return err
		}
		if err := e.pause(ctx, e.opts.scaledMS(e.opts.PatchPauseMS)); err != nil {
			return err
		}
		actual, err := e.position(ctx)
		if err != nil {
			return err
		}

		switch {
		case actual < 1:
			if retries <= 0 {
				return &PatchError{Index: index, Target: target, Actual: actual, Err: ErrPositionUnattainable}
			}
			e.log(ctx).Info("no position reported, restarting playback", logging.Int("patch", index))
			if err := e.EnsurePlaying(ctx); err != nil {
				return err
			}
		case actual == target:
			e.log(ctx).Info("position updated", logging.Int("patch", index), logging.Int("position", actual))
			return nil
		default:
			if retries <= 0 {
				return &PatchError{Index: index, Target: target, Actual: actual, Err: ErrPositionMismatch}
			}
			e.log(ctx).Info("position mismatch, retrying",
				logging.Int("patch", index),
				logging.Int("target", target),
				logging.Int("position", actual),
			)
			if err := e.pause(ctx, e.opts.scaled(positionRetryDelay)); err != nil {
				return err
			}
		}
		retries--
	}
}

// Position returns the current playback position, or -1 when unavailable.
func (e *Engine) Position(ctx context.Context) (int, error) {
	return e.position(ctx)
}

func (e *Engine) position(ctx context.Context) (int, error) {
	resp, err := e.call(ctx, "Playback/Position", nil, true)
	if err != nil {
		return -1, err
	}
	pos := -1
	if resp.OK() {
		if value, ok := resp.Int("Position"); ok {
			pos = value
		}
	}
	e.log(ctx).Debug("position read", logging.Int("position", pos))
	return pos, nil
}
