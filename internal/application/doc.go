// Package application provides application initialization and dependency
// wiring. It encapsulates the creation of the credential pool, admin service,
// HTTP handlers, routers, and server instances, making the main package
// cleaner and more focused on CLI parsing and orchestration.
package application
