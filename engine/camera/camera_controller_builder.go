package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*flyController)

// WithPosition sets the initial camera position.
//
// Parameters:
//   - pos: world-space position
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(pos mgl32.Vec3) CameraControllerOption {
	return func(fc *flyController) {
		fc.position = pos
	}
}

// WithYaw sets the initial heading in degrees.
//
// Parameters:
//   - yaw: heading in degrees (0 = +X axis)
//
// Returns:
//   - CameraControllerOption: functional option to set the yaw
func WithYaw(yaw float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.yaw = yaw
	}
}

// WithPitch sets the initial elevation in degrees. Values are clamped to [-89, 89].
//
// Parameters:
//   - pitch: elevation in degrees
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch
func WithPitch(pitch float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.pitch = pitch
	}
}

// WithMoveSpeed scales translation input.
//
// Parameters:
//   - speed: world units per unit of input
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.moveSpeed = speed
	}
}

// WithTurnSpeed scales rotation input.
//
// Parameters:
//   - speed: degrees per unit of input
//
// Returns:
//   - CameraControllerOption: functional option to set the turn speed
func WithTurnSpeed(speed float32) CameraControllerOption {
	return func(fc *flyController) {
		fc.turnSpeed = speed
	}
}
