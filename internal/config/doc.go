// Package config loads, normalizes, and validates regenq configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REGENQ_TOKEN and REGENQ_CMS_URL. The Config type centralizes every knob the
// CLI and the local store server need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
