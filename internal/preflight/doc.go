// Package preflight provides readiness checks for the paths and endpoints
// regenq depends on.
//
// These checks run in two contexts:
//   - regenqd calls RunLocal at startup and logs any failure.
//   - The CLI "regenq status" command calls RunAll to display readiness of
//     the directories, the queue-item store, and the worker trigger.
//
// Optional checks report problems that degrade behaviour without blocking
// requests, such as a stopped regenqd while the local database is usable.
package preflight
