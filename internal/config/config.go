package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// CMS contains connection settings for the queue-item store.
type CMS struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Trigger contains settings for the optional worker webhook.
type Trigger struct {
	URL            string `toml:"url"`
	Method         string `toml:"method"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Regen contains settings for regeneration requests.
type Regen struct {
	// CoalesceInFlight returns an existing new/pending item for the same
	// slug and field instead of creating a duplicate.
	CoalesceInFlight bool `toml:"coalesce_in_flight"`
}

// Poller contains status polling settings.
type Poller struct {
	IntervalMillis     int `toml:"interval_ms"`
	MaxDurationSeconds int `toml:"max_duration_seconds"`
}

// Admin contains queue administration settings.
type Admin struct {
	PageSize    int `toml:"page_size"`
	MaxPageSize int `toml:"max_page_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for regenq.
//
// Configuration sections by subsystem:
//   - Paths: local data directory, logs, and the store server bind address
//   - CMS: queue-item store endpoint and credential
//   - Trigger: worker webhook
//   - Regen: request behavior
//   - Poller: status polling cadence and limits
//   - Admin: listing page sizes
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	CMS     CMS     `toml:"cms"`
	Trigger Trigger `toml:"trigger"`
	Regen   Regen   `toml:"regen"`
	Poller  Poller  `toml:"poller"`
	Admin   Admin   `toml:"admin"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path, or the first existing candidate
// location when path is empty, then normalizes and validates it. A missing
// file is not an error: defaults apply and exists is false.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loaded := Default()
	if exists {
		raw, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(raw, &loaded); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

// resolveConfigPath honors an explicit path as is. Otherwise it tries the
// user config location, then ./regenq.toml, and falls back to the user
// location when neither exists.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the single-instance lock file for the store server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "regenqd.lock")
}

// StoreURL returns the queue-item store endpoint: the CMS base URL when set,
// otherwise the local store server.
func (c *Config) StoreURL() string {
	if c.CMS.BaseURL != "" {
		return c.CMS.BaseURL
	}
	return "http://" + c.Paths.APIBind
}

// CMSTimeout returns the store request timeout.
func (c *Config) CMSTimeout() time.Duration {
	return time.Duration(c.CMS.TimeoutSeconds) * time.Second
}

// TriggerTimeout returns the webhook request timeout.
func (c *Config) TriggerTimeout() time.Duration {
	return time.Duration(c.Trigger.TimeoutSeconds) * time.Second
}

// PollInterval returns the poller tick interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalMillis) * time.Millisecond
}

// PollMaxDuration returns the poll round limit; zero means unbounded.
func (c *Config) PollMaxDuration() time.Duration {
	return time.Duration(c.Poller.MaxDurationSeconds) * time.Second
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute, cleaned path. Empty input stays empty.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = home + strings.TrimPrefix(pathValue, "~")
	}
	absolute, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
