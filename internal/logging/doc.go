// Package logging assembles structured slog loggers and formatting helpers used
// across regenq.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes helpers so components tag log lines with slugs, item
// IDs, and request IDs using the same keys. NewNop returns a discarding logger
// for tests and optional wiring.
package logging
