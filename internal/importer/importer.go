// Package importer turns user-supplied files into whole-buffer
// replacements for the workspace.
package importer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"github.com/livetemplate/studio/internal/workspace"
)

// DefaultMaxSize is the largest file Import accepts (2 MiB).
const DefaultMaxSize = 2 << 20

var (
	// ErrUnknownTarget is returned for targets other than html, css, js and favicon.
	ErrUnknownTarget = errors.New("importer: unknown target")
	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("importer: file too large")
)

// Targets are the workspace keys a file may replace.
var Targets = []workspace.Key{workspace.HTML, workspace.CSS, workspace.JS, workspace.Favicon}

// ParseTarget validates an import target name.
func ParseTarget(s string) (workspace.Key, bool) {
	for _, t := range Targets {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// TargetForFile infers the import target from a file name.
func TargetForFile(name string) (workspace.Key, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".md", ".markdown":
		return workspace.HTML, true
	case ".css":
		return workspace.CSS, true
	case ".js", ".mjs":
		return workspace.JS, true
	}
	if _, ok := imageTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return workspace.Favicon, true
	}
	return "", false
}

var imageTypes = map[string]string{
	".ico":  "image/x-icon",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".gif":  "image/gif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Importer converts files for a target.
type Importer struct {
	md      goldmark.Markdown
	maxSize int64
}

// New creates an Importer with the default size limit.
func New() *Importer {
	return &Importer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		maxSize: DefaultMaxSize,
	}
}

// WithMaxSize returns a copy of im with a different size limit.
func (im *Importer) WithMaxSize(n int64) *Importer {
	cp := *im
	cp.maxSize = n
	return &cp
}

// Read reads r fully (up to the size limit) and converts it.
func (im *Importer) Read(target workspace.Key, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, im.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > im.maxSize {
		return "", fmt.Errorf("%s: %w (limit %d bytes)", filename, ErrTooLarge, im.maxSize)
	}
	return im.Convert(target, filename, data)
}

// Convert produces the replacement text for target. Text targets are
// taken as-is, except markdown files imported as HTML which are rendered.
// Favicons become a data URL.
func (im *Importer) Convert(target workspace.Key, filename string, data []byte) (string, error) {
	switch target {
	case workspace.HTML:
		if isMarkdown(filename) {
			return im.renderMarkdown(data)
		}
		return string(data), nil
	case workspace.CSS, workspace.JS:
		return string(data), nil
	case workspace.Favicon:
		return dataURL(filename, data), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}

// Import converts r and replaces the target buffer in ws. Existing content
// is never merged.
func (im *Importer) Import(ctx context.Context, ws *workspace.Workspace, target workspace.Key, filename string, r io.Reader) error {
	text, err := im.Read(target, filename, r)
	if err != nil {
		return err
	}
	return ws.Set(ctx, target, text)
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// frontmatter is the optional YAML header of an imported markdown file.
type frontmatter struct {
	Title string `yaml:"title"`
}

func (im *Importer) renderMarkdown(data []byte) (string, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if fm.Title != "" {
		buf.WriteString("<h1>" + htmlEscape(fm.Title) + "</h1>\n")
	}
	if err := im.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func splitFrontmatter(content []byte) (frontmatter, []byte, error) {
	var fm frontmatter
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, content, nil
	}

	end := bytes.Index(content[4:], []byte("\n---\n"))
	if end == -1 {
		return fm, nil, fmt.Errorf("unclosed frontmatter")
	}
	if err := yaml.Unmarshal(content[4:4+end], &fm); err != nil {
		return fm, nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fm, content[4+end+5:], nil
}

func dataURL(filename string, data []byte) string {
	mime, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		mime = http.DetectContentType(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func htmlEscape(s string) string {
	return htmlReplacer.Replace(s)
}
