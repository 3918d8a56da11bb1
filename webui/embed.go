// Package webui carries the built admin UI bundle, embedded at compile time.
package webui

import "embed"

//go:embed dist
var bundle embed.FS

// Dist returns the UI bundle rooted at the dist directory.
func Dist() embed.FS {
	return bundle
}
