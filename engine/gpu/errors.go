package gpu

import "errors"

var (
	// ErrNoDevice is returned when no adapter or device could be acquired.
	ErrNoDevice = errors.New("no gpu device")
	// ErrShaderCompile is returned when a kernel fails the offline WGSL check.
	ErrShaderCompile = errors.New("shader compile failed")
	// ErrMapFailed is returned when a readback buffer cannot be mapped.
	ErrMapFailed = errors.New("buffer map failed")
	// ErrNoFrame is returned when a dispatch is encoded outside BeginComputeFrame/EndComputeFrame.
	ErrNoFrame = errors.New("no compute frame in progress")
)
