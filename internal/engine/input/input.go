// Package input turns SDL2 events into per-frame viewer input.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies an Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventMouseDown
	EventMouseUp
)

// Event is a discrete input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
}

// Frame is everything that happened since the previous Update.
type Frame struct {
	Events []Event

	// Accumulated relative mouse motion while the left or right button is held.
	RotateX, RotateY float32
	PanX, PanY       float32

	// Wheel is the accumulated vertical scroll.
	Wheel float32

	Quit bool
}

// Input polls SDL and keeps the held-button state.
type Input struct {
	frame     Frame
	leftDown  bool
	rightDown bool
}

// New creates an input handler.
func New() *Input {
	return &Input{frame: Frame{Events: make([]Event, 0, 16)}}
}

// Update drains the SDL event queue and returns the frame's input.
func (i *Input) Update() *Frame {
	f := &i.frame
	f.Events = f.Events[:0]
	f.RotateX, f.RotateY, f.PanX, f.PanY, f.Wheel = 0, 0, 0, 0, 0
	f.Quit = false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			f.Quit = true
			f.Events = append(f.Events, Event{Type: EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				f.Events = append(f.Events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				f.Events = append(f.Events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			}

		case *sdl.MouseMotionEvent:
			if i.leftDown {
				f.RotateX += float32(e.XRel)
				f.RotateY += float32(e.YRel)
			}
			if i.rightDown {
				f.PanX += float32(e.XRel)
				f.PanY += float32(e.YRel)
			}

		case *sdl.MouseWheelEvent:
			f.Wheel += float32(e.Y)

		case *sdl.MouseButtonEvent:
			down := e.Type == sdl.MOUSEBUTTONDOWN
			switch e.Button {
			case sdl.BUTTON_LEFT:
				i.leftDown = down
			case sdl.BUTTON_RIGHT:
				i.rightDown = down
			}
			typ := EventMouseUp
			if down {
				typ = EventMouseDown
			}
			f.Events = append(f.Events, Event{
				Type:   typ,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		}
	}
	return f
}

// KeyPressed reports whether scancode went down this frame.
func (f *Frame) KeyPressed(scancode sdl.Scancode) bool {
	for _, e := range f.Events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// KeyHeld reports whether scancode is currently down.
func KeyHeld(scancode sdl.Scancode) bool {
	return sdl.GetKeyboardState()[scancode] != 0
}
