package builder

import "math"

// Event is a pointer or editor intent fed to State.Dispatch.
type Event interface {
	event()
}

// Coord is a pointer position as reported by the view, in the same
// coordinate space as the canvas origin.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerDown is a press on a rendered element.
type PointerDown struct {
	ElementID string
	Pointer   Coord
}

// PointerMove is pointer motion over the canvas. Canvas is the top-left
// corner of the drop surface.
type PointerMove struct {
	Pointer Coord
	Canvas  Coord
}

// PointerUp is a pointer release anywhere.
type PointerUp struct{}

// CanvasDown is a press on empty canvas.
type CanvasDown struct{}

// Pick selects an element without starting a drag.
type Pick struct {
	ElementID string
}

// DeleteSelected removes the selected element.
type DeleteSelected struct{}

// EditSelected applies a style patch to the selected element.
type EditSelected struct {
	Patch StylePatch
}

func (PointerDown) event()    {}
func (PointerMove) event()    {}
func (PointerUp) event()      {}
func (CanvasDown) event()     {}
func (Pick) event()           {}
func (DeleteSelected) event() {}
func (EditSelected) event()   {}

// Dispatch runs the transition for ev and reports whether the session
// changed. Events that do not apply in the current state are no-ops.
func (s *State) Dispatch(ev Event) bool {
	switch e := ev.(type) {
	case PointerDown:
		return s.pointerDown(e)
	case PointerMove:
		return s.pointerMove(e)
	case PointerUp:
		if s.drag == nil {
			return false
		}
		s.drag = nil
		return true
	case CanvasDown:
		if s.selected == "" {
			return false
		}
		s.selected = ""
		return true
	case Pick:
		if s.index(e.ElementID) < 0 || s.selected == e.ElementID {
			return false
		}
		s.selected = e.ElementID
		return true
	case DeleteSelected:
		if s.selected == "" {
			return false
		}
		return s.DeleteElement(s.selected)
	case EditSelected:
		if s.selected == "" {
			return false
		}
		return s.UpdateStyle(s.selected, e.Patch)
	}
	return false
}

// pointerDown selects the element and starts dragging it, remembering
// where inside the element the pointer grabbed it.
func (s *State) pointerDown(e PointerDown) bool {
	el, ok := s.Element(e.ElementID)
	if !ok {
		return false
	}
	s.selected = el.ID
	s.drag = &drag{
		id: el.ID,
		offset: Point{
			X: round(e.Pointer.X) - el.Position.X,
			Y: round(e.Pointer.Y) - el.Position.Y,
		},
	}
	return true
}

func (s *State) pointerMove(e PointerMove) bool {
	if s.drag == nil {
		return false
	}
	x := round(e.Pointer.X-e.Canvas.X) - s.drag.offset.X
	y := round(e.Pointer.Y-e.Canvas.Y) - s.drag.offset.Y
	return s.MoveElement(s.drag.id, x, y)
}

func round(f float64) int {
	return int(math.Round(f))
}
