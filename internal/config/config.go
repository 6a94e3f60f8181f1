package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Device describes one media server and the playback zone to drive on it.
type Device struct {
	Address  string `toml:"address"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Secure   bool   `toml:"secure"`
	// Zone selects the playback zone; IgnoreZone (-1) leaves zone handling to the server.
	Zone int `toml:"zone"`
}

// Chart identifies the test clip holding the patches.
type Chart struct {
	Name string `toml:"name"`
	HDR  bool   `toml:"hdr"`
	// PatchDuration is the number of position units each patch occupies.
	PatchDuration int `toml:"patch_duration"`
}

// Timing contains pacing knobs applied while driving a server.
type Timing struct {
	SleepMultiplier        float64 `toml:"sleep_multiplier"`
	DisplayPauseMS         int     `toml:"display_pause_ms"`
	PatchPauseMS           int     `toml:"patch_pause_ms"`
	ConvergeTimeoutSeconds int     `toml:"converge_timeout_seconds"`
}

// Measurement contains settings handed through to the measurement tooling.
type Measurement struct {
	PatchReads int `toml:"patch_reads"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for untethered.
//
// Configuration sections by subsystem:
//   - Paths: state (locks, history) and log directories
//   - Devices: media servers and zones
//   - Chart: test clip name, dynamic range, and patch length
//   - Timing: sleep multiplier and settle pauses
//   - Measurement: values passed through to the meter loop
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Devices     []Device    `toml:"devices"`
	Chart       Chart       `toml:"chart"`
	Timing      Timing      `toml:"timing"`
	Measurement Measurement `toml:"measurement"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := read(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// LoadUnvalidated parses and normalizes configuration without validating it.
// The config commands use it to report problems instead of failing early.
func LoadUnvalidated(path string) (*Config, string, bool, error) {
	return read(path)
}

func read(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("untethered.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the event history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// Episode returns the Episode tag of the configured chart variant.
func (c *Config) Episode() string {
	if c.Chart.HDR {
		return "hdr"
	}
	return "sdr"
}

// SelectDevices returns the devices matching selector. An empty selector
// returns every configured device; otherwise the selector is either a device
// address or its 1-based position in the configuration.
func (c *Config) SelectDevices(selector string) ([]Device, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return append([]Device(nil), c.Devices...), nil
	}
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(c.Devices) {
			return nil, fmt.Errorf("device %d out of range (1-%d)", n, len(c.Devices))
		}
		return []Device{c.Devices[n-1]}, nil
	}
	var matched []Device
	for _, device := range c.Devices {
		if strings.EqualFold(device.Address, selector) {
			matched = append(matched, device)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no configured device matches %q", selector)
	}
	return matched, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
