// Command regenq queues catalog content regeneration and follows it.
//
// Commands talk to the catalog CMS when cms.base_url is set. Otherwise they
// use a running regenqd, and fall back to opening the SQLite store directly.
package main
