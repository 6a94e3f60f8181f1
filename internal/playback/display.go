package playback

import (
	"context"
	"net/url"
	"time"

	"untethered/internal/logging"
)

const fullscreenSettle = 250 * time.Millisecond

// ensureFullscreen toggles fullscreen once when needed and reports whether the
// server ended up in fullscreen mode. Not reaching it is not an error.
func (e *Engine) ensureFullscreen(ctx context.Context) (bool, error) {
	for toggled := false; ; toggled = true {
		mode, err := e.displayMode(ctx)
		if err != nil {
			return false, err
		}
		if mode == fullscreenMode {
			return true, nil
		}
		if toggled {
			logging.WarnWithContext(e.log(ctx), "display did not enter fullscreen", "display_mode",
				logging.Int("mode", mode),
				logging.String(logging.FieldImpact, "patches may be shown windowed"),
			)
			return false, nil
		}
		if err := e.pause(ctx, e.opts.scaled(fullscreenSettle)); err != nil {
			return false, err
		}
		params := url.Values{"Command": {"22000"}, "Parameter": {"2"}, "Block": {"1"}}
		if _, err := e.call(ctx, "Control/MCC", params, false); err != nil {
			return false, err
		}
		if err := e.pause(ctx, e.opts.scaledMS(e.opts.DisplayPauseMS)); err != nil {
			return false, err
		}
	}
}

// DisplayMode returns the server's current display mode; 2 is fullscreen.
func (e *Engine) DisplayMode(ctx context.Context) (int, error) {
	return e.displayMode(ctx)
}

// displayMode returns the UserInterface/Info mode, or 0 when unavailable.
func (e *Engine) displayMode(ctx context.Context) (int, error) {
	resp, err := e.call(ctx, "UserInterface/Info", nil, false)
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		return 0, nil
	}
	mode, _ := resp.Int("Mode")
	internal, _ := resp.Field("InternalMode")
	e.log(ctx).Info("display mode", logging.Int("mode", mode), logging.String("internal_mode", internal))
	return mode, nil
}

func (e *Engine) hideOverlay(ctx context.Context) error {
	_, err := e.call(ctx, "UserInterface/OSD", url.Values{"On": {"0"}}, false)
	return err
}

// setupDisplay applies fullscreen and hides the on-screen display.
func (e *Engine) setupDisplay(ctx context.Context) error {
	if _, err := e.ensureFullscreen(ctx); err != nil {
		return err
	}
	return e.hideOverlay(ctx)
}
