// Package cms is the HTTP client for the catalog CMS queue-item and tag
// endpoints. It implements queue.Repository so the request service, the
// admin manager and the poller can run against a remote store.
//
// Every call carries the caller's bearer credential. Non-2xx responses are
// mapped onto the queue error taxonomy: 401 and 403 become authentication
// failures, 404 not found, 400 and 422 validation errors, everything else an
// upstream failure.
package cms
