package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDevices(); err != nil {
		return err
	}
	if err := c.validateChart(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if c.Measurement.PatchReads < 1 {
		return errors.New("measurement.patch_reads must be at least 1")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateDevices() error {
	if len(c.Devices) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("at least one [[devices]] entry is required. Set MCWS_ADDRESS env var or edit %s (create with 'untethered config init')", defaultPath)
	}
	for i, device := range c.Devices {
		if device.Address == "" {
			return fmt.Errorf("devices[%d].address must be set", i)
		}
		if strings.ContainsAny(device.Address, "/?# ") {
			return fmt.Errorf("devices[%d].address must be host[:port], got %q", i, device.Address)
		}
		if device.Zone < IgnoreZone {
			return fmt.Errorf("devices[%d].zone must be %d (ignore) or a zone id", i, IgnoreZone)
		}
		if device.Password != "" && device.Username == "" {
			return fmt.Errorf("devices[%d].username is required when a password is set", i)
		}
	}
	return nil
}

func (c *Config) validateChart() error {
	if c.Chart.Name == "" {
		return errors.New("chart.name must be set")
	}
	if c.Chart.PatchDuration <= 0 {
		return errors.New("chart.patch_duration must be positive")
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Timing.SleepMultiplier < 0 {
		return errors.New("timing.sleep_multiplier must not be negative")
	}
	if c.Timing.DisplayPauseMS < 0 {
		return errors.New("timing.display_pause_ms must not be negative")
	}
	if c.Timing.PatchPauseMS < 0 {
		return errors.New("timing.patch_pause_ms must not be negative")
	}
	return nil
}
