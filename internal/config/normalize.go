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
	c.normalizeCMS()
	c.normalizeTrigger()
	c.normalizePoller()
	c.normalizeAdmin()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCMS() {
	if value, ok := os.LookupEnv(envCMSURL); ok && strings.TrimSpace(value) != "" {
		c.CMS.BaseURL = value
	}
	c.CMS.BaseURL = strings.TrimRight(strings.TrimSpace(c.CMS.BaseURL), "/")
	if value, ok := os.LookupEnv(envToken); ok && strings.TrimSpace(value) != "" {
		c.CMS.Token = value
	}
	c.CMS.Token = strings.TrimSpace(c.CMS.Token)
	if c.CMS.TimeoutSeconds <= 0 {
		c.CMS.TimeoutSeconds = defaultCMSTimeoutSeconds
	}
}

func (c *Config) normalizeTrigger() {
	c.Trigger.URL = strings.TrimSpace(c.Trigger.URL)
	c.Trigger.Method = strings.ToUpper(strings.TrimSpace(c.Trigger.Method))
	if c.Trigger.Method == "" {
		c.Trigger.Method = defaultTriggerMethod
	}
	if c.Trigger.TimeoutSeconds <= 0 {
		c.Trigger.TimeoutSeconds = defaultTriggerTimeout
	}
}

func (c *Config) normalizePoller() {
	if c.Poller.IntervalMillis <= 0 {
		c.Poller.IntervalMillis = defaultPollIntervalMillis
	}
	if c.Poller.MaxDurationSeconds < 0 {
		c.Poller.MaxDurationSeconds = 0
	}
}

func (c *Config) normalizeAdmin() {
	if c.Admin.MaxPageSize <= 0 {
		c.Admin.MaxPageSize = defaultAdminMaxPageSize
	}
	if c.Admin.PageSize <= 0 {
		c.Admin.PageSize = defaultAdminPageSize
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
