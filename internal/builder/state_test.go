package builder

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequentialIDs returns a generator producing el-1, el-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

func ptr[T any](v T) *T { return &v }

func TestAddElementDefaults(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		content string
		href    string
	}{
		{"text", KindText, "Hello", ""},
		{"link", KindLink, "Click", "https://example.com"},
		{"link without href", KindLink, "Click", ""},
		{"image", KindImage, "https://example.com/a.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			el, ok := s.AddElement(tt.kind, tt.content, tt.href)
			require.True(t, ok)

			got, found := s.Element(el.ID)
			require.True(t, found)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.content, got.Content)
			assert.Equal(t, Point{X: 100, Y: 100}, got.Position)

			href, isLink := got.Href()
			assert.Equal(t, tt.kind == KindLink, isLink)
			assert.Equal(t, tt.href, href)

			style, styled := got.Style()
			if tt.kind == KindImage {
				assert.False(t, styled)
			} else {
				assert.True(t, styled)
				assert.Equal(t, Style{FontSize: 16, Color: "#ffffff", FontWeight: 400}, style)
			}
		})
	}
}

func TestAddElementRejectsBlankContent(t *testing.T) {
	s := New()
	for _, content := range []string{"", "   ", "\n\t"} {
		_, ok := s.AddElement(KindText, content, "")
		assert.False(t, ok, "content %q", content)
	}
	_, ok := s.AddElement(Kind("button"), "Go", "")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestAddElementUniqueIDs(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		el, ok := s.AddElement(KindText, "x", "")
		require.True(t, ok)
		assert.False(t, seen[el.ID], "duplicate id %s", el.ID)
		seen[el.ID] = true
	}
}

func TestAddElementHrefOnlyOnLinks(t *testing.T) {
	s := New()
	el, _ := s.AddElement(KindText, "Hello", "https://ignored.example")
	_, isLink := el.Href()
	assert.False(t, isLink)
}

func TestUpdateStyle(t *testing.T) {
	s := New(WithIDGenerator(sequentialIDs()))
	link, _ := s.AddElement(KindLink, "Click", "")

	ok := s.UpdateStyle(link.ID, StylePatch{
		Href:       ptr("https://example.com"),
		FontSize:   ptr(24),
		Color:      ptr("#ff0000"),
		FontWeight: ptr(700),
		Content:    ptr("Go"),
	})
	require.True(t, ok)

	got, _ := s.Element(link.ID)
	href, _ := got.Href()
	style, _ := got.Style()
	assert.Equal(t, "https://example.com", href)
	assert.Equal(t, "Go", got.Content)
	assert.Equal(t, Style{FontSize: 24, Color: "#ff0000", FontWeight: 700}, style)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, KindLink, got.Kind())
}

func TestUpdateStyleDropsInvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		patch StylePatch
	}{
		{"font size too small", StylePatch{FontSize: ptr(7)}},
		{"font size too large", StylePatch{FontSize: ptr(73)}},
		{"weight off step", StylePatch{FontWeight: ptr(450)}},
		{"weight too heavy", StylePatch{FontWeight: ptr(1000)}},
		{"color name", StylePatch{Color: ptr("red")}},
		{"color bad hex", StylePatch{Color: ptr("#12345")}},
		{"blank content", StylePatch{Content: ptr("  ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			el, _ := s.AddElement(KindText, "Hello", "")
			s.UpdateStyle(el.ID, tt.patch)

			got, _ := s.Element(el.ID)
			style, _ := got.Style()
			assert.Equal(t, DefaultStyle(), style)
			assert.Equal(t, "Hello", got.Content)
		})
	}
}

func TestUpdateStyleBoundaries(t *testing.T) {
	s := New()
	el, _ := s.AddElement(KindText, "Hello", "")

	s.UpdateStyle(el.ID, StylePatch{FontSize: ptr(8), FontWeight: ptr(100), Color: ptr("#abc")})
	got, _ := s.Element(el.ID)
	style, _ := got.Style()
	assert.Equal(t, Style{FontSize: 8, Color: "#abc", FontWeight: 100}, style)

	s.UpdateStyle(el.ID, StylePatch{FontSize: ptr(72), FontWeight: ptr(900)})
	got, _ = s.Element(el.ID)
	style, _ = got.Style()
	assert.Equal(t, 72, style.FontSize)
	assert.Equal(t, 900, style.FontWeight)
}

func TestUpdateStyleOnImageIgnoresTypography(t *testing.T) {
	s := New()
	img, _ := s.AddElement(KindImage, "a.png", "")
	s.UpdateStyle(img.ID, StylePatch{FontSize: ptr(20), Href: ptr("x"), Content: ptr("b.png")})

	got, _ := s.Element(img.ID)
	_, styled := got.Style()
	_, isLink := got.Href()
	assert.False(t, styled)
	assert.False(t, isLink)
	assert.Equal(t, "b.png", got.Content)
}

func TestUpdateStyleUnknownID(t *testing.T) {
	s := New()
	s.AddElement(KindText, "Hello", "")
	before := s.Elements()

	assert.False(t, s.UpdateStyle("missing", StylePatch{FontSize: ptr(20)}))
	assert.Equal(t, before, s.Elements())
}

func TestMoveElementConvergesToLastPosition(t *testing.T) {
	s := New()
	el, _ := s.AddElement(KindText, "Hello", "")

	s.MoveElement(el.ID, 10, 20)
	s.MoveElement(el.ID, -500, 3000)
	s.MoveElement(el.ID, 42, -7)

	got, _ := s.Element(el.ID)
	assert.Equal(t, Point{X: 42, Y: -7}, got.Position)
	assert.False(t, s.MoveElement("missing", 1, 1))
}

func TestDeleteElement(t *testing.T) {
	t.Run("clears selection of deleted element", func(t *testing.T) {
		s := New()
		a, _ := s.AddElement(KindText, "A", "")
		s.Dispatch(Pick{ElementID: a.ID})
		require.Equal(t, a.ID, s.Selected())

		assert.True(t, s.DeleteElement(a.ID))
		assert.Equal(t, "", s.Selected())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("keeps selection of other element", func(t *testing.T) {
		s := New()
		a, _ := s.AddElement(KindText, "A", "")
		b, _ := s.AddElement(KindText, "B", "")
		s.Dispatch(Pick{ElementID: a.ID})

		s.DeleteElement(b.ID)
		assert.Equal(t, a.ID, s.Selected())
		assert.Equal(t, 1, s.Len())
	})

	t.Run("idempotent for missing id", func(t *testing.T) {
		s := New()
		s.AddElement(KindText, "A", "")
		assert.False(t, s.DeleteElement("missing"))
		assert.False(t, s.DeleteElement("missing"))
		assert.Equal(t, 1, s.Len())
	})

	t.Run("preserves order of remaining elements", func(t *testing.T) {
		s := New(WithIDGenerator(sequentialIDs()))
		s.AddElement(KindText, "A", "")
		s.AddElement(KindText, "B", "")
		s.AddElement(KindText, "C", "")
		s.DeleteElement("el-2")

		var ids []string
		for _, el := range s.Elements() {
			ids = append(ids, el.ID)
		}
		assert.Equal(t, []string{"el-1", "el-3"}, ids)
	})
}

func TestElementsReturnsCopy(t *testing.T) {
	s := New()
	el, _ := s.AddElement(KindText, "A", "")
	list := s.Elements()
	list[0].Content = "mutated"

	got, _ := s.Element(el.ID)
	assert.Equal(t, "A", got.Content)
}

func TestElementMarshalJSON(t *testing.T) {
	s := New(WithIDGenerator(sequentialIDs()))
	s.AddElement(KindLink, "Click", "")
	s.AddElement(KindImage, "a.png", "")

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"elements": [
			{"id":"el-1","type":"link","content":"Click","x":100,"y":100,"href":"","fontSize":16,"color":"#ffffff","fontWeight":400},
			{"id":"el-2","type":"image","content":"a.png","x":100,"y":100}
		]
	}`, string(data))
}
