// Package codegen turns the builder's element list into a standalone HTML
// document and its stylesheet.
package codegen

import (
	"html"
	"strconv"
	"strings"

	"github.com/livetemplate/studio/internal/builder"
)

// Title is the fixed document title of generated pages.
const Title = "Plut Studio - Visual Builder"

// ImageAlt is the alternative text every generated image carries.
const ImageAlt = "Image"

// Serialize renders elements, in order, into an HTML document and the
// stylesheet that goes with it. The output depends only on the inputs.
func Serialize(elements []builder.Element, background string) (string, string) {
	return HTML(elements), CSS(background)
}

// Save serializes the session and hands the result to onSave. The
// generated text is not retained anywhere else.
func Save(s *builder.State, background string, onSave func(html, css string)) {
	if onSave == nil {
		return
	}
	onSave(Serialize(s.Elements(), background))
}

// HTML renders the document markup.
func HTML(elements []builder.Element) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("  <title>" + Title + "</title>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString("  <div class=\"canvas\">\n")

	for _, el := range elements {
		b.WriteString("    ")
		writeNode(&b, el)
		b.WriteString("\n")
	}

	b.WriteString("  </div>\n</body>\n</html>")
	return b.String()
}

func writeNode(b *strings.Builder, el builder.Element) {
	class := `class="element element-` + html.EscapeString(el.ID) + `"`
	style := `style="` + inlineStyle(el) + `"`
	text := html.EscapeString(el.Content)

	switch el.Kind() {
	case builder.KindLink:
		href, _ := el.Href()
		if href == "" {
			href = "#"
		}
		b.WriteString(`<a href="` + html.EscapeString(href) + `" ` + class + ` ` + style + `>` + text + `</a>`)
	case builder.KindImage:
		b.WriteString(`<img src="` + text + `" ` + class + ` ` + style + ` alt="` + ImageAlt + `" />`)
	default:
		b.WriteString(`<div ` + class + ` ` + style + `>` + text + `</div>`)
	}
}

// inlineStyle renders the position directive and, for styled kinds, the
// typography directives with defaults substituted for unset values.
func inlineStyle(el builder.Element) string {
	var b strings.Builder
	b.WriteString("left: " + strconv.Itoa(el.Position.X) + "px; ")
	b.WriteString("top: " + strconv.Itoa(el.Position.Y) + "px;")

	if el.Kind() == builder.KindImage {
		return b.String()
	}

	s, _ := el.Style()
	if s.FontSize == 0 {
		s.FontSize = builder.DefaultFontSize
	}
	if s.Color == "" {
		s.Color = builder.DefaultColor
	}
	if s.FontWeight == 0 {
		s.FontWeight = builder.DefaultFontWeight
	}

	b.WriteString(" font-size: " + strconv.Itoa(s.FontSize) + "px;")
	b.WriteString(" color: " + html.EscapeString(s.Color) + ";")
	b.WriteString(" font-weight: " + strconv.Itoa(s.FontWeight) + ";")
	return b.String()
}
