// Package api defines the wire-format types shared by the queue-item store
// server and its HTTP clients, plus converters to and from the internal queue
// and tags models.
//
// # Key Types
//
// QueueItem: transport representation of a regeneration request.
//
// QueueItemResponse / QueueListResponse: single item and paginated listing
// envelopes. A read-by-slug miss is encoded as {"item": null}.
//
// ErrorResponse: error envelope carrying the taxonomy kind so clients can
// rebuild a classified error.
//
// Tag / TagListResponse: catalog tags as served by the CMS.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Enums are exposed as lowercase strings and the
// all-fields value is the empty string. Timestamps are RFC3339 with
// nanoseconds so the latest-by-slug ordering survives a round trip.
package api
