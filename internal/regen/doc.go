// Package regen turns user regeneration requests into queue items.
//
// A request names a catalog entry slug and a field (or "all"). The service
// validates both before touching the network, requires a bearer credential,
// creates a queue item with status new, and fires the optional worker
// webhook. It never waits for processing; callers watch progress with the
// poller package.
//
// Duplicate requests create distinct items unless in-flight coalescing is
// enabled, in which case an existing new or pending item for the same slug
// and field is returned instead.
package regen
