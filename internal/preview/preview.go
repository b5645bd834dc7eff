// Package preview assembles the code panes into one runnable document.
package preview

import "strings"

// Sandbox is the iframe sandbox policy previews are rendered under:
// scripts run, but the document gets an opaque origin.
const Sandbox = "allow-scripts"

// CSP is the header equivalent of Sandbox, sent when a preview is served
// as a top-level response.
const CSP = "sandbox " + Sandbox

// Compose embeds css in a style block and js in a trailing script block
// around the html body fragment. All three are inserted verbatim.
func Compose(html, css, js string) string {
	var b strings.Builder
	b.Grow(len(html) + len(css) + len(js) + 160)

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n<style>")
	b.WriteString(css)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString(html)
	b.WriteString("\n<script>")
	b.WriteString(js)
	b.WriteString("</script>\n</body>\n</html>\n")
	return b.String()
}
