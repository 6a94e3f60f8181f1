package playback

import (
	"fmt"
	"time"

	"untethered/internal/config"
)

// IgnoreZone disables zone selection and zone verification.
const IgnoreZone = config.IgnoreZone

const (
	// DefaultConvergeRetries bounds the non-terminal steps of one reconcile.
	DefaultConvergeRetries = 6
	// DefaultPatchRetries bounds the seek attempts of one DisplayPatch.
	DefaultPatchRetries = 3

	fullscreenMode  = 2
	mediaCenterName = "Media Center"

	// unreported marks a numeric Playback/Info field the server left out.
	unreported = -1
)

// Episode selects the dynamic range variant of the chart.
type Episode string

const (
	EpisodeSDR Episode = "sdr"
	EpisodeHDR Episode = "hdr"
)

// State is the normalized playback state. Besides the named constants a
// server may report any transitional label, which is carried verbatim.
type State string

const (
	StateStopped   State = "Stopped"
	StatePlaying   State = "Playing"
	StatePaused    State = "Paused"
	StateOpening   State = "Opening..."
	StateWaiting   State = "Waiting"
	StateUnknown   State = "Unknown"
	StateWrongZone State = "Wrong Zone"
)

// Transient reports whether the server is still loading the file.
func (s State) Transient() bool {
	return s == StateOpening || s == StateWaiting
}

// Status is one observation of the server.
type Status struct {
	ZoneID      int
	FileKey     string
	StateCode   int
	StatusLabel string
	FileName    string
	State       State
}

func (s Status) String() string {
	return fmt.Sprintf("zone: %d, file_key: %s, state: %d / %s / %s, filename: %s",
		s.ZoneID, s.FileKey, s.StateCode, s.StatusLabel, s.State, s.FileName)
}

// Options describes the target device, chart, and pacing of an Engine.
type Options struct {
	Address  string
	Username string
	Password string
	Secure   bool
	// Host is an opaque handle returned unchanged by Engine.Host.
	Host any

	ChartName string
	HDR       bool
	Zone      int
	// PatchDuration is the number of position units per patch.
	PatchDuration int

	SleepMultiplier float64
	DisplayPauseMS  int
	PatchPauseMS    int
	PatchReads      int
}

// Episode returns the chart variant selected by HDR.
func (o Options) Episode() Episode {
	if o.HDR {
		return EpisodeHDR
	}
	return EpisodeSDR
}

// Identity returns the connection identity of the target device.
func (o Options) Identity() Identity {
	return Identity{
		Address:  o.Address,
		Username: o.Username,
		Password: o.Password,
		Secure:   o.Secure,
	}
}

// OptionsFromConfig combines the shared chart and timing settings with one device.
func OptionsFromConfig(cfg *config.Config, device config.Device) Options {
	return Options{
		Address:         device.Address,
		Username:        device.Username,
		Password:        device.Password,
		Secure:          device.Secure,
		ChartName:       cfg.Chart.Name,
		HDR:             cfg.Chart.HDR,
		Zone:            device.Zone,
		PatchDuration:   cfg.Chart.PatchDuration,
		SleepMultiplier: cfg.Timing.SleepMultiplier,
		DisplayPauseMS:  cfg.Timing.DisplayPauseMS,
		PatchPauseMS:    cfg.Timing.PatchPauseMS,
		PatchReads:      cfg.Measurement.PatchReads,
	}
}

// TargetPosition returns the position of the first unit of patch index.
func TargetPosition(index, duration int) int {
	return index*duration + 1
}

func (o Options) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * o.SleepMultiplier)
}

func (o Options) scaledMS(ms int) time.Duration {
	return o.scaled(time.Duration(ms) * time.Millisecond)
}
