// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int // relative motion, or wheel steps
	DeltaY int
	Button uint8
}

// Input polls SDL and tracks which keys and buttons are held.
type Input struct {
	events  []Event
	keys    map[sdl.Scancode]bool
	buttons map[uint8]bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		keys:    make(map[sdl.Scancode]bool),
		buttons: make(map[uint8]bool),
	}
}

// Update polls SDL events. Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e, ok := translate(event); ok {
			i.Apply(e)
			if e.Type == EventQuit {
				quit = true
			}
		}
	}
	return quit
}

func translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		if e.Type == sdl.KEYDOWN {
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		}
		return Event{Type: EventKeyUp, Key: e.Keysym.Scancode}, true

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		t := EventMouseUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			t = EventMouseDown
		}
		return Event{Type: t, MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}, true

	case *sdl.MouseWheelEvent:
		return Event{Type: EventMouseWheel, DeltaX: int(e.X), DeltaY: int(e.Y)}, true
	}
	return Event{}, false
}

// Apply records an event and updates held state. Update calls it for every SDL event.
func (i *Input) Apply(e Event) {
	i.events = append(i.events, e)
	switch e.Type {
	case EventKeyDown:
		i.keys[e.Key] = true
	case EventKeyUp:
		delete(i.keys, e.Key)
	case EventMouseDown:
		i.buttons[e.Button] = true
	case EventMouseUp:
		delete(i.buttons, e.Button)
	}
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key went down this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsKeyHeld reports whether a key is currently down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return i.keys[scancode]
}

// IsButtonHeld reports whether a mouse button is currently down.
func (i *Input) IsButtonHeld(button uint8) bool {
	return i.buttons[button]
}

// Axis returns +1, -1 or 0 from a pair of held keys.
func (i *Input) Axis(positive, negative sdl.Scancode) float32 {
	var v float32
	if i.keys[positive] {
		v++
	}
	if i.keys[negative] {
		v--
	}
	return v
}

// MouseDelta sums relative motion over this frame's events.
func (i *Input) MouseDelta() (dx, dy int) {
	for _, e := range i.events {
		if e.Type == EventMouseMove {
			dx += e.DeltaX
			dy += e.DeltaY
		}
	}
	return dx, dy
}

// Wheel sums vertical wheel steps over this frame's events.
func (i *Input) Wheel() int {
	n := 0
	for _, e := range i.events {
		if e.Type == EventMouseWheel {
			n += e.DeltaY
		}
	}
	return n
}

// BeginFrame clears per-frame events without touching held state. Use it when events are
// fed through Apply instead of Update.
func (i *Input) BeginFrame() {
	i.events = i.events[:0]
}
