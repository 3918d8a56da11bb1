// Package runtimeconfig holds the runtime configuration record shared with
// the embedded admin UI. The host populates a process-wide slot before any
// reader runs; readers receive the record unchanged, or a zero record when
// the slot was never set. The package also derives the admin API base URL
// from the record's base path.
package runtimeconfig
