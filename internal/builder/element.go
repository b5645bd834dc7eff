// Package builder holds the visual canvas model: placed elements, the
// drag/selection state machine that moves them, and the save hook that
// turns them into code.
package builder

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Kind identifies the variant of a placed element.
type Kind string

const (
	KindText  Kind = "text"
	KindLink  Kind = "link"
	KindImage Kind = "image"
)

// Valid reports whether k is a known element kind.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindLink, KindImage:
		return true
	}
	return false
}

// Style defaults and limits.
const (
	DefaultFontSize   = 16
	DefaultColor      = "#ffffff"
	DefaultFontWeight = 400

	MinFontSize = 8
	MaxFontSize = 72
)

// SpawnPosition is where every new element is placed.
var SpawnPosition = Point{X: 100, Y: 100}

// Point is a canvas-relative pixel offset.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Style carries the typography shared by text and link elements.
type Style struct {
	FontSize   int    `json:"fontSize"`
	Color      string `json:"color"`
	FontWeight int    `json:"fontWeight"`
}

// DefaultStyle returns the style every new text or link element starts with.
func DefaultStyle() Style {
	return Style{
		FontSize:   DefaultFontSize,
		Color:      DefaultColor,
		FontWeight: DefaultFontWeight,
	}
}

// Body is the kind-specific part of an element.
// Implemented by Text, Link and Image only.
type Body interface {
	Kind() Kind
	isBody()
}

// Text is a block of display text.
type Text struct {
	Style Style
}

// Link is an anchor. Href is independent of the element's content.
type Link struct {
	Href  string
	Style Style
}

// Image shows the element's content as an image source. It has no style.
type Image struct{}

func (Text) Kind() Kind  { return KindText }
func (Link) Kind() Kind  { return KindLink }
func (Image) Kind() Kind { return KindImage }

func (Text) isBody()  {}
func (Link) isBody()  {}
func (Image) isBody() {}

// Element is one item placed on the canvas.
type Element struct {
	ID       string
	Content  string
	Position Point
	Body     Body
}

// Kind returns the element's variant.
func (e Element) Kind() Kind {
	if e.Body == nil {
		return ""
	}
	return e.Body.Kind()
}

// Href returns the link target and whether the element is a link.
func (e Element) Href() (string, bool) {
	if l, ok := e.Body.(Link); ok {
		return l.Href, true
	}
	return "", false
}

// Style returns the element's typography, or false for images.
func (e Element) Style() (Style, bool) {
	switch b := e.Body.(type) {
	case Text:
		return b.Style, true
	case Link:
		return b.Style, true
	}
	return Style{}, false
}

// elementJSON is the flat wire shape sent to the builder view.
type elementJSON struct {
	ID         string  `json:"id"`
	Type       Kind    `json:"type"`
	Content    string  `json:"content"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Href       *string `json:"href,omitempty"`
	FontSize   int     `json:"fontSize,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontWeight int     `json:"fontWeight,omitempty"`
}

// MarshalJSON flattens the variant so the view can render it directly.
func (e Element) MarshalJSON() ([]byte, error) {
	out := elementJSON{
		ID:      e.ID,
		Type:    e.Kind(),
		Content: e.Content,
		X:       e.Position.X,
		Y:       e.Position.Y,
	}
	if href, ok := e.Href(); ok {
		out.Href = &href
	}
	if s, ok := e.Style(); ok {
		out.FontSize = s.FontSize
		out.Color = s.Color
		out.FontWeight = s.FontWeight
	}
	return json.Marshal(out)
}

// StylePatch is a partial update from the style editor. Nil fields are
// left untouched. ID and Kind cannot be patched.
type StylePatch struct {
	Content    *string `json:"content,omitempty"`
	Href       *string `json:"href,omitempty"`
	FontSize   *int    `json:"fontSize,omitempty"`
	Color      *string `json:"color,omitempty"`
	FontWeight *int    `json:"fontWeight,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p StylePatch) Empty() bool {
	return p.Content == nil && p.Href == nil && p.FontSize == nil && p.Color == nil && p.FontWeight == nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether c is a #rgb or #rrggbb colour.
func ValidColor(c string) bool {
	return hexColor.MatchString(c)
}

// ValidFontSize reports whether n is inside [MinFontSize, MaxFontSize].
func ValidFontSize(n int) bool {
	return n >= MinFontSize && n <= MaxFontSize
}

// ValidFontWeight reports whether n is one of 100, 200, ... 900.
func ValidFontWeight(n int) bool {
	return n >= 100 && n <= 900 && n%100 == 0
}

// apply merges p into e, dropping any field that fails validation.
func (p StylePatch) apply(e *Element) {
	if p.Content != nil && strings.TrimSpace(*p.Content) != "" {
		e.Content = *p.Content
	}

	switch b := e.Body.(type) {
	case Text:
		b.Style = p.applyStyle(b.Style)
		e.Body = b
	case Link:
		if p.Href != nil {
			b.Href = *p.Href
		}
		b.Style = p.applyStyle(b.Style)
		e.Body = b
	}
}

func (p StylePatch) applyStyle(s Style) Style {
	if p.FontSize != nil && ValidFontSize(*p.FontSize) {
		s.FontSize = *p.FontSize
	}
	if p.Color != nil && ValidColor(*p.Color) {
		s.Color = *p.Color
	}
	if p.FontWeight != nil && ValidFontWeight(*p.FontWeight) {
		s.FontWeight = *p.FontWeight
	}
	return s
}
