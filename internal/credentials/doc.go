// Package credentials maintains the in-memory pool of upstream credentials
// managed through the admin API. The pool tracks per-entry priority, disabled
// state, and failure counts, and designates one entry as current. Mutations
// never persist; the pool is seeded from a YAML file or defaults at startup.
package credentials
