package testsupport

import (
	"path/filepath"
	"testing"

	"untethered/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It configures one device, a chart, and near-zero delays, then applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Devices = []config.Device{{Address: "127.0.0.1:52199"}}
	cfgVal.Chart = config.Chart{Name: DefaultChart, PatchDuration: 1000}
	cfgVal.Timing.SleepMultiplier = 0.0001

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSimulator points the configured device at a running simulator.
func WithSimulator(sim *Simulator) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Devices = []config.Device{{
			Address:  sim.Address(),
			Username: sim.Username,
			Password: sim.Password,
		}}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
