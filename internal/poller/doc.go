// Package poller watches the latest queue item for one catalog entry until
// the external worker reports it finished or failed.
//
// A Poller reads once when attached and then, while a round is active, once
// per interval. Rounds start on Attach when the latest item is still in
// flight, and again on Kick after a new regeneration request. Read failures
// never end a round; they are logged at debug level and the next tick tries
// again at the same interval. The poller only reads. It never writes to the
// store.
//
// Hub keeps one poller per slug for views that track several entries.
package poller
