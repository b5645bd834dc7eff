package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/studio/internal/builder"
)

func newState() *builder.State {
	n := 0
	return builder.New(builder.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}))
}

func TestSerializeTextScenario(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindText, "Hello", "")

	html, css := Serialize(s.Elements(), "#112233")

	assert.Contains(t, html, `<div class="element element-e1" style="left: 100px; top: 100px; font-size: 16px; color: #ffffff; font-weight: 400;">Hello</div>`)
	assert.Contains(t, html, "left: 100px; top: 100px")
	assert.Contains(t, css, "background: #112233")
}

func TestSerializeLinkFallsBackToHash(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindLink, "Click", "")

	html, _ := Serialize(s.Elements(), "#000000")
	assert.Contains(t, html, `<a href="#" class="element element-e1"`)
	assert.Contains(t, html, `>Click</a>`)
}

func TestSerializeLinkHref(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindLink, "Docs", "https://example.com/?a=1&b=2")

	html, _ := Serialize(s.Elements(), "#000000")
	assert.Contains(t, html, `<a href="https://example.com/?a=1&amp;b=2"`)
}

func TestSerializeImage(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindImage, "https://example.com/cat.png", "")

	html, _ := Serialize(s.Elements(), "#000000")
	assert.Contains(t, html, `<img src="https://example.com/cat.png" class="element element-e1" style="left: 100px; top: 100px;" alt="Image" />`)
	assert.NotContains(t, html, "font-size")
}

func TestSerializeBoilerplate(t *testing.T) {
	html, css := Serialize(nil, "#ffffff")

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `<meta charset="UTF-8">`)
	assert.Contains(t, html, `<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
	assert.Contains(t, html, "<title>"+Title+"</title>")
	assert.Equal(t, 1, strings.Count(html, `<div class="canvas">`))
	assert.True(t, strings.HasSuffix(html, "</html>"))

	for _, rule := range []string{"* {", ".canvas {", ".element {", ".element:hover {", "a.element {", "img.element {"} {
		assert.Contains(t, css, rule)
	}
}

func TestSerializeEscapesContent(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindText, `<script>alert("x")</script>`, "")
	s.AddElement(builder.KindImage, `a.png" onerror="alert(1)`, "")

	html, _ := Serialize(s.Elements(), "#000")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, `" onerror="`)
}

func TestSerializeDeterministic(t *testing.T) {
	build := func() []builder.Element {
		s := newState()
		s.AddElement(builder.KindText, "A", "")
		s.AddElement(builder.KindLink, "B", "https://b.example")
		s.AddElement(builder.KindImage, "c.png", "")
		s.MoveElement("e2", 7, -3)
		return s.Elements()
	}

	html1, css1 := Serialize(build(), "#123456")
	html2, css2 := Serialize(build(), "#123456")
	assert.Equal(t, html1, html2)
	assert.Equal(t, css1, css2)
}

func TestSerializeOrderPreserving(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindText, "A", "")
	s.AddElement(builder.KindLink, "B", "https://b.example")
	s.AddElement(builder.KindImage, "c.png", "")
	els := s.Elements()

	reversed := []builder.Element{els[2], els[1], els[0]}

	forward, cssF := Serialize(els, "#000")
	backward, cssB := Serialize(reversed, "#000")

	nodes := func(doc string) []string {
		var out []string
		for _, line := range strings.Split(doc, "\n") {
			if strings.Contains(line, `class="element `) {
				out = append(out, strings.TrimSpace(line))
			}
		}
		return out
	}

	f, b := nodes(forward), nodes(backward)
	require.Len(t, f, 3)
	require.Len(t, b, 3)
	assert.Equal(t, f[0], b[2])
	assert.Equal(t, f[1], b[1])
	assert.Equal(t, f[2], b[0])
	assert.Equal(t, cssF, cssB)
}

func TestSerializeDefaultsForUnsetStyle(t *testing.T) {
	els := []builder.Element{{
		ID:       "x",
		Content:  "bare",
		Position: builder.Point{X: 1, Y: 2},
		Body:     builder.Text{},
	}}

	html, _ := Serialize(els, "#000")
	assert.Contains(t, html, "left: 1px; top: 2px; font-size: 16px; color: #ffffff; font-weight: 400;")
}

func TestCSSIndependentOfElements(t *testing.T) {
	s := newState()
	_, empty := Serialize(nil, "#abcdef")
	for i := 0; i < 5; i++ {
		s.AddElement(builder.KindText, "x", "")
	}
	_, full := Serialize(s.Elements(), "#abcdef")
	assert.Equal(t, empty, full)
}

func TestCSSSanitizesBackground(t *testing.T) {
	css := CSS("red; } body { display: none")
	assert.Contains(t, css, "background: red  body  display: none;")
	assert.Equal(t, strings.Count(CSS("#fff"), "{"), strings.Count(css, "{"))
}

func TestSave(t *testing.T) {
	s := newState()
	s.AddElement(builder.KindText, "Hello", "")

	var gotHTML, gotCSS string
	calls := 0
	Save(s, "#010203", func(html, css string) {
		calls++
		gotHTML, gotCSS = html, css
	})

	assert.Equal(t, 1, calls)
	assert.Contains(t, gotHTML, ">Hello</div>")
	assert.Contains(t, gotCSS, "background: #010203")

	assert.NotPanics(t, func() { Save(s, "#000", nil) })
}
