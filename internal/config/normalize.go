package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDevices()
	c.normalizeChart()
	c.normalizeTiming()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevices() {
	if len(c.Devices) == 0 {
		if value, ok := os.LookupEnv("MCWS_ADDRESS"); ok && strings.TrimSpace(value) != "" {
			c.Devices = []Device{{Address: value, Zone: defaultZone}}
		}
	}
	username, hasUsername := os.LookupEnv("MCWS_USERNAME")
	password, hasPassword := os.LookupEnv("MCWS_PASSWORD")
	for i := range c.Devices {
		device := &c.Devices[i]
		device.Address = strings.TrimSpace(device.Address)
		device.Address = strings.TrimPrefix(device.Address, "http://")
		device.Address = strings.TrimPrefix(device.Address, "https://")
		device.Address = strings.TrimRight(device.Address, "/")
		device.Username = strings.TrimSpace(device.Username)
		if device.Username == "" && hasUsername {
			device.Username = strings.TrimSpace(username)
		}
		if device.Password == "" && hasPassword {
			device.Password = password
		}
	}
}

func (c *Config) normalizeChart() {
	c.Chart.Name = strings.TrimSpace(c.Chart.Name)
}

func (c *Config) normalizeTiming() {
	if c.Timing.SleepMultiplier == 0 {
		c.Timing.SleepMultiplier = defaultSleepMultiplier
	}
	if c.Timing.ConvergeTimeoutSeconds < 0 {
		c.Timing.ConvergeTimeoutSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
