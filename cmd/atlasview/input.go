package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// inputState tracks mouse state per frame
type inputState struct {
	MouseX, MouseY   int
	MouseDX, MouseDY int // delta since last frame
	prevMouseX       int
	prevMouseY       int
	LeftPressed      bool
	LeftJustPressed  bool
	LeftJustReleased bool
	ScrollY          float64

	DragStartX, DragStartY int
	Dragging               bool
	DragThreshold          int
}

func newInputState() *inputState {
	return &inputState{DragThreshold: 5}
}

// Update should be called every frame
func (s *inputState) Update() {
	s.prevMouseX = s.MouseX
	s.prevMouseY = s.MouseY
	s.MouseX, s.MouseY = ebiten.CursorPosition()
	s.MouseDX = s.MouseX - s.prevMouseX
	s.MouseDY = s.MouseY - s.prevMouseY

	leftDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.LeftJustPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	s.LeftJustReleased = inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)
	s.LeftPressed = leftDown

	_, s.ScrollY = ebiten.Wheel()

	if s.LeftJustPressed {
		s.DragStartX = s.MouseX
		s.DragStartY = s.MouseY
		s.Dragging = false
	}
	if leftDown && !s.Dragging {
		dx := s.MouseX - s.DragStartX
		dy := s.MouseY - s.DragStartY
		if dx*dx+dy*dy > s.DragThreshold*s.DragThreshold {
			s.Dragging = true
		}
	}
	if !leftDown {
		s.Dragging = false
	}
}

// Clicked reports a left click that never turned into a drag
func (s *inputState) Clicked() bool {
	return s.LeftJustReleased &&
		(s.MouseX-s.DragStartX)*(s.MouseX-s.DragStartX)+(s.MouseY-s.DragStartY)*(s.MouseY-s.DragStartY) <= s.DragThreshold*s.DragThreshold
}
