// Package admin implements the back-office view of the regeneration queue:
// paginated listing with a status filter, inspection, status and field edits,
// permanent deletion, and per-status totals.
//
// Every call goes straight to the repository. Nothing is cached between
// calls and failures are surfaced without retry.
package admin
