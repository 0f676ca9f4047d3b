package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCMS(); err != nil {
		return err
	}
	if err := c.validateTrigger(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateAdmin(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if !strings.Contains(c.Paths.APIBind, ":") {
		return fmt.Errorf("paths.api_bind %q must be host:port", c.Paths.APIBind)
	}
	return nil
}

func (c *Config) validateCMS() error {
	if c.CMS.BaseURL == "" {
		return nil
	}
	if err := validateHTTPURL(c.CMS.BaseURL); err != nil {
		return fmt.Errorf("cms.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateTrigger() error {
	switch c.Trigger.Method {
	case "GET", "POST":
	default:
		return fmt.Errorf("trigger.method must be GET or POST, got %q", c.Trigger.Method)
	}
	if c.Trigger.URL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Trigger.URL); err != nil {
		return fmt.Errorf("trigger.url: %w", err)
	}
	return nil
}

func (c *Config) validatePoller() error {
	if c.Poller.IntervalMillis < minPollIntervalMillis {
		return fmt.Errorf("poller.interval_ms must be at least %d", minPollIntervalMillis)
	}
	return nil
}

func (c *Config) validateAdmin() error {
	if err := ensurePositiveMap(map[string]int{
		"admin.page_size":     c.Admin.PageSize,
		"admin.max_page_size": c.Admin.MaxPageSize,
	}); err != nil {
		return err
	}
	if c.Admin.PageSize > c.Admin.MaxPageSize {
		return errors.New("admin.page_size must not exceed admin.max_page_size")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
