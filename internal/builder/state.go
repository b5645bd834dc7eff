package builder

import (
	"strings"

	"github.com/google/uuid"
)

// State is one builder session: the ordered element list (insertion order
// is z-order), the drag in progress and the current selection.
//
// State is not safe for concurrent use. Callers serialize access, the same
// way a single UI event queue would.
type State struct {
	elements []Element
	drag     *drag
	selected string
	newID    func() string
}

// drag is the Dragging(elementID, offset) controller state.
type drag struct {
	id     string
	offset Point
}

// Option configures a State.
type Option func(*State)

// WithIDGenerator overrides how element ids are generated. The generator
// must never return an id it has returned before.
func WithIDGenerator(gen func() string) Option {
	return func(s *State) {
		s.newID = gen
	}
}

// New creates an empty builder session.
func New(opts ...Option) *State {
	s := &State{
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddElement appends a new element at SpawnPosition with default style.
// Blank content or an unknown kind leaves the state untouched and
// returns false. href is only kept for links.
func (s *State) AddElement(kind Kind, content, href string) (Element, bool) {
	if strings.TrimSpace(content) == "" || !kind.Valid() {
		return Element{}, false
	}

	var body Body
	switch kind {
	case KindText:
		body = Text{Style: DefaultStyle()}
	case KindLink:
		body = Link{Href: href, Style: DefaultStyle()}
	case KindImage:
		body = Image{}
	}

	el := Element{
		ID:       s.newID(),
		Content:  content,
		Position: SpawnPosition,
		Body:     body,
	}
	s.elements = append(s.elements, el)
	return el, true
}

// UpdateStyle merges patch into the element with the given id.
// Unknown ids are ignored.
func (s *State) UpdateStyle(id string, patch StylePatch) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	patch.apply(&s.elements[i])
	return true
}

// DeleteElement removes the element with the given id, clearing any
// selection or drag that referenced it first.
func (s *State) DeleteElement(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	if s.selected == id {
		s.selected = ""
	}
	if s.drag != nil && s.drag.id == id {
		s.drag = nil
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	return true
}

// MoveElement overwrites the position of the element with the given id.
func (s *State) MoveElement(id string, x, y int) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.elements[i].Position = Point{X: x, Y: y}
	return true
}

// Elements returns a copy of the element list in z-order.
func (s *State) Elements() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Element looks up an element by id.
func (s *State) Element(id string) (Element, bool) {
	i := s.index(id)
	if i < 0 {
		return Element{}, false
	}
	return s.elements[i], true
}

// Len returns the number of placed elements.
func (s *State) Len() int {
	return len(s.elements)
}

// Selected returns the selected element id, or "" when nothing is selected.
func (s *State) Selected() string {
	return s.selected
}

// Dragging returns the id of the element being dragged, if any.
func (s *State) Dragging() (string, bool) {
	if s.drag == nil {
		return "", false
	}
	return s.drag.id, true
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Elements []Element `json:"elements"`
	Selected string    `json:"selected,omitempty"`
	Dragging string    `json:"dragging,omitempty"`
}

// Snapshot captures the current session for the view.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Elements: s.Elements(),
		Selected: s.selected,
	}
	if s.drag != nil {
		snap.Dragging = s.drag.id
	}
	return snap
}

func (s *State) index(id string) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}
