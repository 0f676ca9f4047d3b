// Package daemon runs the local queue store server behind regenqd.
//
// The server speaks the same queue-item REST contract as the catalog CMS,
// backed by the SQLite store, so the CLI and the poller work without a CMS.
// A flock-based lock in the data directory keeps a single instance per
// store. The daemon also serves store health and per-status counts on
// /api/status and Prometheus metrics on /metrics.
//
// Keep request handling here. Queue semantics belong to the queue package.
package daemon
