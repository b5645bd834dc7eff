// Package export packages a workspace as a zip archive.
package export

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/livetemplate/studio/internal/workspace"
)

// Archive entry names.
const (
	IndexFile   = "index.html"
	ContentFile = "content.html"
	StylesFile  = "styles.css"
	ScriptFile  = "script.js"
)

// ModTime is stamped on every entry so identical workspaces produce
// identical archives.
var ModTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Filename returns the download name for a project.
func Filename(project string) string {
	if project == "" {
		project = "site"
	}
	return project + ".zip"
}

// WriteZip writes the archive for snap to w.
func WriteZip(w io.Writer, snap workspace.Snapshot) error {
	zw := zip.NewWriter(w)

	entries := []struct {
		name string
		body string
	}{
		{IndexFile, Index(snap)},
		{ContentFile, snap.HTML},
		{StylesFile, snap.CSS},
		{ScriptFile, snap.JS},
	}
	for _, e := range entries {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: ModTime,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := io.WriteString(f, e.body); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	return zw.Close()
}

// Index builds the entry document. It links the stylesheet and script by
// relative path and embeds the HTML buffer in its body.
func Index(snap workspace.Snapshot) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	if snap.Favicon != "" {
		b.WriteString("  <link rel=\"icon\" href=\"" + html.EscapeString(snap.Favicon) + "\">\n")
	}
	b.WriteString("  <link rel=\"stylesheet\" href=\"" + StylesFile + "\">\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(snap.HTML)
	b.WriteString("\n  <script src=\"" + ScriptFile + "\"></script>\n")
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
