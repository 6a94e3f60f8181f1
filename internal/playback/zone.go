package playback

import (
	"context"
	"time"

	"untethered/internal/logging"
)

const zoneSettle = 250 * time.Millisecond

// activateZone selects the configured zone. Whether it took is judged by the next poll.
func (e *Engine) activateZone(ctx context.Context) error {
	e.log(ctx).Info("activating zone", logging.Int("zone", e.opts.Zone))
	if _, err := e.call(ctx, "Playback/SetZone", nil, true); err != nil {
		return err
	}
	return e.pause(ctx, e.opts.scaled(zoneSettle))
}
