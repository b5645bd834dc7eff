// Package assets embeds the builder page and its script and stylesheet.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed client/*
var clientFS embed.FS

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetIndexHTML returns the builder page
func GetIndexHTML() ([]byte, error) {
	return clientFS.ReadFile("client/index.html")
}
