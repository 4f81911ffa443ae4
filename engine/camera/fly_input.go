package camera

import (
	"math"
	"sync"
)

// FlyBindings maps key codes to fly-camera motions.
type FlyBindings struct {
	Forward  uint32
	Backward uint32
	Left     uint32
	Right    uint32
	Up       uint32
	Down     uint32

	YawLeft   uint32
	YawRight  uint32
	PitchUp   uint32
	PitchDown uint32
}

const (
	// keyTurnRate is the rotation in degrees per second while a turn key is held.
	keyTurnRate = 90
	// dragSensitivity is degrees of rotation per pixel of mouse drag.
	dragSensitivity = 0.2
	// scrollStep is the speed factor applied per wheel notch.
	scrollStep = 1.25
	// minSpeedScale and maxSpeedScale bound the wheel-adjusted speed factor.
	minSpeedScale = 1.0 / 16
	maxSpeedScale = 16
)

// FlyInput accumulates held keys and mouse drags between ticks and turns them into CameraDelta values.
// Its methods may be called from the window thread while Delta runs on the tick goroutine.
type FlyInput struct {
	mu       sync.Mutex
	bindings FlyBindings
	held     map[uint32]bool

	dragging     bool
	lastX, lastY int32
	dragX, dragY float32

	speedScale float32
}

// NewFlyInput creates an input accumulator for the given bindings.
//
// Parameters:
//   - bindings: the key layout
//
// Returns:
//   - *FlyInput: the accumulator
func NewFlyInput(bindings FlyBindings) *FlyInput {
	return &FlyInput{
		bindings:   bindings,
		held:       make(map[uint32]bool),
		speedScale: 1,
	}
}

// KeyDown marks code as held.
func (in *FlyInput) KeyDown(code uint32) {
	in.mu.Lock()
	in.held[code] = true
	in.mu.Unlock()
}

// KeyUp releases code.
func (in *FlyInput) KeyUp(code uint32) {
	in.mu.Lock()
	delete(in.held, code)
	in.mu.Unlock()
}

// BeginDrag starts a mouse-look drag at the cursor position.
func (in *FlyInput) BeginDrag(x, y int32) {
	in.mu.Lock()
	in.dragging = true
	in.lastX, in.lastY = x, y
	in.mu.Unlock()
}

// EndDrag stops mouse-look.
func (in *FlyInput) EndDrag(_, _ int32) {
	in.mu.Lock()
	in.dragging = false
	in.mu.Unlock()
}

// MouseMove accumulates cursor travel while a drag is active.
func (in *FlyInput) MouseMove(x, y int32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.dragging {
		return
	}
	in.dragX += float32(x - in.lastX)
	in.dragY += float32(y - in.lastY)
	in.lastX, in.lastY = x, y
}

// Scroll scales translation speed by scrollStep per notch; positive offsets speed up.
func (in *FlyInput) Scroll(delta float32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	f := in.speedScale * float32(math.Pow(scrollStep, float64(delta)))
	in.speedScale = min(max(f, minSpeedScale), maxSpeedScale)
}

// SpeedScale returns the current wheel-adjusted speed factor.
func (in *FlyInput) SpeedScale() float32 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.speedScale
}

// Delta returns the motion for a tick of dt seconds and clears the accumulated drag.
// Translations are dt per held key times the speed factor; the controller's move speed scales them further.
//
// Parameters:
//   - dt: tick length in seconds
//
// Returns:
//   - CameraDelta: the motion for this tick
func (in *FlyInput) Delta(dt float32) CameraDelta {
	in.mu.Lock()
	defer in.mu.Unlock()

	axis := func(code uint32) float32 {
		if in.held[code] {
			return dt
		}
		return 0
	}
	move := func(code uint32) float32 {
		return axis(code) * in.speedScale
	}
	b := in.bindings
	d := CameraDelta{
		Forward:  move(b.Forward),
		Backward: move(b.Backward),
		Left:     move(b.Left),
		Right:    move(b.Right),
		Up:       move(b.Up),
		Down:     move(b.Down),
	}
	// Positive yaw turns left, positive pitch looks up.
	d.Yaw = (axis(b.YawLeft)-axis(b.YawRight))*keyTurnRate - in.dragX*dragSensitivity
	d.Pitch = (axis(b.PitchUp)-axis(b.PitchDown))*keyTurnRate - in.dragY*dragSensitivity
	in.dragX, in.dragY = 0, 0
	return d
}
