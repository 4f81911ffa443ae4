package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraDelta is one frame of fly-camera input.
// Translations are in world units, rotations in degrees.
type CameraDelta struct {
	Left     float32
	Right    float32
	Forward  float32
	Backward float32
	Up       float32
	Down     float32
	Yaw      float32
	Pitch    float32
}

// CameraController owns the camera's positional state. The Camera reads Position and Front
// each Update and derives the view matrix from them.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Front returns the normalized viewing direction.
	//
	// Returns:
	//   - mgl32.Vec3: the forward vector
	Front() mgl32.Vec3

	// Yaw returns the heading in degrees. Zero looks down +X.
	//
	// Returns:
	//   - float32: yaw in degrees, wrapped to (-360, 360)
	Yaw() float32

	// Pitch returns the elevation in degrees.
	//
	// Returns:
	//   - float32: pitch in degrees, clamped to [-89, 89]
	Pitch() float32

	// SetPosition places the camera.
	//
	// Parameters:
	//   - pos: world-space position
	SetPosition(pos mgl32.Vec3)

	// LookAt turns the camera toward target without moving it.
	// Does nothing if target coincides with the camera position.
	//
	// Parameters:
	//   - target: world-space point to face
	LookAt(target mgl32.Vec3)

	// MoveByDelta applies one frame of translation and rotation input.
	// Translations are scaled by the move speed and rotations by the turn speed.
	//
	// Parameters:
	//   - delta: the input for this frame
	MoveByDelta(delta CameraDelta)
}

// flyController is a free-flight yaw/pitch controller.
type flyController struct {
	mu *sync.Mutex

	position mgl32.Vec3
	front    mgl32.Vec3
	yaw      float32
	pitch    float32

	moveSpeed float32
	turnSpeed float32
}

var _ CameraController = &flyController{}

// worldUp is the fixed up axis for yaw rotation and strafing.
var worldUp = mgl32.Vec3{0, 1, 0}

// NewFlyController creates a fly controller at the origin looking down +X.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewFlyController(options ...CameraControllerOption) CameraController {
	fc := &flyController{
		mu:        &sync.Mutex{},
		moveSpeed: 1.0,
		turnSpeed: 1.0,
	}
	for _, option := range options {
		option(fc)
	}
	fc.updateFront()
	return fc
}

func (fc *flyController) Position() mgl32.Vec3 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.position
}

func (fc *flyController) Front() mgl32.Vec3 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.front
}

func (fc *flyController) Yaw() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.yaw
}

func (fc *flyController) Pitch() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.pitch
}

func (fc *flyController) SetPosition(pos mgl32.Vec3) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.position = pos
}

func (fc *flyController) LookAt(target mgl32.Vec3) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	dir := target.Sub(fc.position)
	if dir.LenSqr() < 1e-12 {
		return
	}
	dir = dir.Normalize()
	fc.pitch = mgl32.RadToDeg(float32(math.Asin(float64(mgl32.Clamp(dir[1], -1, 1)))))
	fc.yaw = mgl32.RadToDeg(float32(math.Atan2(float64(dir[2]), float64(dir[0]))))
	fc.updateFront()
}

func (fc *flyController) MoveByDelta(delta CameraDelta) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	horizontal := fc.front.Cross(worldUp)
	if horizontal.LenSqr() > 1e-12 {
		horizontal = horizontal.Normalize()
	}

	fc.position = fc.position.
		Add(fc.front.Mul((delta.Forward - delta.Backward) * fc.moveSpeed)).
		Add(horizontal.Mul((delta.Right - delta.Left) * fc.moveSpeed)).
		Add(worldUp.Mul((delta.Up - delta.Down) * fc.moveSpeed))

	fc.yaw = float32(math.Mod(float64(fc.yaw-delta.Yaw*fc.turnSpeed), 360))
	fc.pitch += delta.Pitch * fc.turnSpeed
	fc.updateFront()
}

// updateFront clamps pitch and recomputes the forward vector from yaw and pitch.
// Caller must hold the mutex.
func (fc *flyController) updateFront() {
	fc.pitch = mgl32.Clamp(fc.pitch, -89, 89)
	yaw := float64(mgl32.DegToRad(fc.yaw))
	pitch := float64(mgl32.DegToRad(fc.pitch))
	fc.front = mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}.Normalize()
}
