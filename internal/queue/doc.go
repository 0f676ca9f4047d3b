// Package queue defines catalog regeneration queue items and the storage
// contract every backend honors.
//
// An Item records that some generated content of a catalog entry (one field,
// or all of them when Field is empty) should be regenerated by the external
// processing pipeline. Users create items through the regen service, admins
// curate them, and the poller watches the most recent one per slug.
//
// The Repository interface is implemented by the CMS HTTP client and by the
// local SQLite Store (through NewLocalRepository). Schema changes bump the
// version in schema.go; users clear the database to adopt the new schema.
package queue
