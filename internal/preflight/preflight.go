package preflight

import (
	"context"

	"regenq/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional failures are warnings rather than errors.
	Optional bool
}

// Failed reports whether r is a failure that should block work.
func (r Result) Failed() bool {
	return !r.Passed && !r.Optional
}

// RunLocal checks the directories regenqd writes to.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// RunAll executes every applicable check for cfg. The store check targets the
// CMS when one is configured and the local store server otherwise.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := RunLocal(cfg)

	if cfg.CMS.BaseURL != "" {
		results = append(results, CheckStore(ctx, "Catalog CMS", cfg.CMS.BaseURL, cfg.CMS.Token, cfg.CMSTimeout()))
	} else {
		listener := CheckListener("Store server", cfg.Paths.APIBind)
		listener.Optional = true
		if !listener.Passed {
			listener.Detail += "; commands use the local database"
		}
		results = append(results, listener)
	}

	if cfg.Trigger.URL != "" {
		trigger := CheckEndpoint("Worker trigger", cfg.Trigger.URL)
		trigger.Optional = true
		results = append(results, trigger)
	}

	return results
}

// AnyFailed reports whether any non-optional check failed.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}
