// Package adminui serves the embedded single-page admin UI. The index page
// is rewritten on every request to inject the runtime configuration record
// as a global, so the front end can derive the admin API base URL without a
// separate round trip.
package adminui
