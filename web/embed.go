// Package web holds the HTML templates and static assets, embedded into the
// server binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var FS embed.FS

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
