// Package site serves the embedded demo console.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded demo console to mux. It is mounted at the
// root path so it also acts as the fallback for unmatched routes.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle("/", files)
}
