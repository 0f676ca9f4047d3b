package testsupport

import (
	"path/filepath"
	"testing"

	"regenq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.CMS.Token = "test-token"
	cfgVal.Poller.IntervalMillis = 50

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

// WithCMS points the config at a store endpoint.
func WithCMS(baseURL, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CMS.BaseURL = baseURL
		b.cfg.CMS.Token = token
	}
}

// WithTrigger configures the worker webhook.
func WithTrigger(url, method string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Trigger.URL = url
		b.cfg.Trigger.Method = method
	}
}

// WithAPIToken sets the bearer token required by the local store server.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithCoalescing toggles in-flight request coalescing.
func WithCoalescing(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Regen.CoalesceInFlight = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
