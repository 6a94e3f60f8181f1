package playback

import (
	"context"
	"net/url"
	"strings"

	"untethered/internal/logging"
	"untethered/internal/services/mcws"
)

// NormalizeState maps a raw observation to a State. A zone mismatch wins over
// everything else unless targetZone is IgnoreZone.
func NormalizeState(raw Status, targetZone int) State {
	if targetZone != IgnoreZone && raw.ZoneID != targetZone {
		return StateWrongZone
	}
	label := State(raw.StatusLabel)
	switch {
	case raw.StateCode == 2 && !label.Transient():
		return StatePlaying
	case raw.StateCode == 1:
		return StatePaused
	case raw.StateCode == 0:
		return StateStopped
	case raw.StatusLabel != "":
		return label
	default:
		return StateUnknown
	}
}

// Status polls Playback/Info. ok is false when the server returned nothing
// usable, which callers treat as nothing loaded.
func (e *Engine) Status(ctx context.Context) (Status, bool, error) {
	resp, err := e.call(ctx, "Playback/Info", url.Values{"Fields": {"Name"}}, false)
	if err != nil {
		return Status{}, false, err
	}
	if !resp.OK() {
		e.log(ctx).Info("no playback info available", logging.String("outcome", resp.Outcome.String()))
		return Status{}, false, nil
	}
	status := parseStatus(resp)
	status.State = NormalizeState(status, e.opts.Zone)
	e.log(ctx).Info("playback status",
		logging.Int("zone_id", status.ZoneID),
		logging.String("file_key", status.FileKey),
		logging.Int("state_code", status.StateCode),
		logging.String("status", status.StatusLabel),
		logging.String("state", string(status.State)),
		logging.String("file_name", status.FileName),
	)
	return status, true, nil
}

func parseStatus(resp mcws.Response) Status {
	status := Status{ZoneID: unreported, StateCode: unreported}
	if zone, ok := resp.Int("ZoneID"); ok {
		status.ZoneID = zone
	}
	if code, ok := resp.Int("State"); ok {
		status.StateCode = code
	}
	status.FileKey, _ = resp.Field("FileKey")
	status.StatusLabel, _ = resp.Field("Status")
	name, _ := resp.Field("Name")
	status.FileName = strings.TrimSpace(name)
	return status
}
