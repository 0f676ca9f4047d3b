package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"regenq/internal/admin"
	"regenq/internal/config"
	"regenq/internal/logging"
	"regenq/internal/queueaccess"
	"regenq/internal/regen"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	openSession func(*config.Config) (queueaccess.Session, error)
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verbose:     verbose,
		openSession: queueaccess.Open,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// cliLogger keeps stderr quiet unless --verbose is set. Everything at the
// same level is also appended to log_dir/regenq.jsonl.
func (c *commandContext) cliLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		level := "warn"
		if c.verbose != nil && *c.verbose {
			level = "debug"
		}
		logger, err := logging.New(logging.Options{
			Level:       level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
			JSONFile:    filepath.Join(cfg.Paths.LogDir, "regenq.jsonl"),
		})
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) withSession(fn func(*config.Config, queueaccess.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	session, err := c.openSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()
	c.cliLogger().Debug("queue session opened",
		logging.String("backend", string(session.Backend)),
		logging.String("store_url", cfg.StoreURL()),
	)
	return fn(cfg, session)
}

func (c *commandContext) regenService(cfg *config.Config, session queueaccess.Session) *regen.Service {
	return regen.NewFromConfig(cfg, session.Repository, c.cliLogger(), nil)
}

func (c *commandContext) adminManager(cfg *config.Config, session queueaccess.Session) *admin.Manager {
	return admin.NewFromConfig(cfg, session.Repository, c.cliLogger())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
