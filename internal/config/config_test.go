package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"untethered/internal/config"
)

func TestLoadDefaultConfigUsesEnvDeviceAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	t.Setenv("MCWS_ADDRESS", "http://10.0.0.5:52199/")
	t.Setenv("MCWS_USERNAME", "calibrator")
	t.Setenv("MCWS_PASSWORD", "secret")

	// Chart settings have no env fallback, so the default load must fail.
	if _, _, _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "chart.name") {
		t.Fatalf("expected chart validation error, got %v", err)
	}

	cfg, resolved, exists, err := config.LoadUnvalidated("")
	if err != nil {
		t.Fatalf("LoadUnvalidated returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "untethered", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "untethered") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if len(cfg.Devices) != 1 {
		t.Fatalf("expected device from env, got %+v", cfg.Devices)
	}
	device := cfg.Devices[0]
	if device.Address != "10.0.0.5:52199" {
		t.Fatalf("expected scheme and slash stripped, got %q", device.Address)
	}
	if device.Username != "calibrator" || device.Password != "secret" {
		t.Fatalf("expected env credentials, got %+v", device)
	}
	if device.Zone != 0 {
		t.Fatalf("expected default zone 0, got %d", device.Zone)
	}
	if cfg.Timing.SleepMultiplier != 1 || cfg.Timing.DisplayPauseMS != 5000 || cfg.Timing.PatchPauseMS != 300 {
		t.Fatalf("unexpected timing defaults: %+v", cfg.Timing)
	}
	if cfg.Measurement.PatchReads != 1 {
		t.Fatalf("unexpected patch reads: %d", cfg.Measurement.PatchReads)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("MCWS_USERNAME", "env-user")
	t.Setenv("MCWS_PASSWORD", "env-pass")
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"

[[devices]]
address = "theater:52199"
username = "file-user"
password = "file-pass"
secure = true
zone = 2

[[devices]]
address = "office:52199"
zone = -1

[chart]
name = "Calman"
hdr = true
patch_duration = 2000

[timing]
sleep_multiplier = 2.5

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("expected two devices, got %d", len(cfg.Devices))
	}
	first, second := cfg.Devices[0], cfg.Devices[1]
	if first.Username != "file-user" || first.Password != "file-pass" || !first.Secure || first.Zone != 2 {
		t.Fatalf("file credentials should win over env: %+v", first)
	}
	if second.Username != "env-user" || second.Password != "env-pass" || second.Zone != config.IgnoreZone {
		t.Fatalf("expected env fallback on second device: %+v", second)
	}
	if cfg.Episode() != "hdr" {
		t.Fatalf("expected hdr episode, got %q", cfg.Episode())
	}
	if cfg.Timing.SleepMultiplier != 2.5 {
		t.Fatalf("unexpected multiplier %v", cfg.Timing.SleepMultiplier)
	}
	if cfg.Timing.PatchPauseMS != 300 {
		t.Fatalf("expected default patch pause to survive partial timing table, got %d", cfg.Timing.PatchPauseMS)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if cfg.HistoryPath() != filepath.Join(dir, "state", "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
}

func TestSelectDevices(t *testing.T) {
	cfg := config.Default()
	cfg.Devices = []config.Device{{Address: "a:1"}, {Address: "b:2"}}

	all, err := cfg.SelectDevices("")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected all devices, got %v %v", all, err)
	}
	byIndex, err := cfg.SelectDevices("2")
	if err != nil || len(byIndex) != 1 || byIndex[0].Address != "b:2" {
		t.Fatalf("unexpected index selection %v %v", byIndex, err)
	}
	byAddress, err := cfg.SelectDevices("A:1")
	if err != nil || len(byAddress) != 1 || byAddress[0].Address != "a:1" {
		t.Fatalf("unexpected address selection %v %v", byAddress, err)
	}
	if _, err := cfg.SelectDevices("3"); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := cfg.SelectDevices("c:3"); err == nil {
		t.Fatal("expected unknown device error")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_chart_name_here") {
		t.Fatalf("sample config missing chart placeholder: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if len(cfg.Devices) != 1 || cfg.Chart.PatchDuration != 1000 {
		t.Fatalf("unexpected sample contents: %+v", cfg)
	}
}

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Devices = []config.Device{{Address: "10.0.0.5:52199"}}
	cfg.Chart.Name = "Calman"
	cfg.Chart.PatchDuration = 1000
	return cfg
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := validConfig()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"no devices", func(c *config.Config) { c.Devices = nil }},
		{"empty address", func(c *config.Config) { c.Devices[0].Address = "" }},
		{"address with path", func(c *config.Config) { c.Devices[0].Address = "host/MCWS" }},
		{"zone below ignore", func(c *config.Config) { c.Devices[0].Zone = -2 }},
		{"password without user", func(c *config.Config) { c.Devices[0].Password = "x" }},
		{"missing chart", func(c *config.Config) { c.Chart.Name = "" }},
		{"zero patch duration", func(c *config.Config) { c.Chart.PatchDuration = 0 }},
		{"negative multiplier", func(c *config.Config) { c.Timing.SleepMultiplier = -1 }},
		{"negative patch pause", func(c *config.Config) { c.Timing.PatchPauseMS = -1 }},
		{"zero patch reads", func(c *config.Config) { c.Measurement.PatchReads = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
