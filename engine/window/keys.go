package window

import "github.com/go-gl/glfw/v3.3/glfw"

// Key codes delivered to the key callbacks.
const (
	KeyW        = uint32(glfw.KeyW)
	KeyA        = uint32(glfw.KeyA)
	KeyS        = uint32(glfw.KeyS)
	KeyD        = uint32(glfw.KeyD)
	KeyQ        = uint32(glfw.KeyQ)
	KeyE        = uint32(glfw.KeyE)
	KeySpace    = uint32(glfw.KeySpace)
	KeyLeftCtrl = uint32(glfw.KeyLeftControl)
	KeyLeft     = uint32(glfw.KeyLeft)
	KeyRight    = uint32(glfw.KeyRight)
	KeyUp       = uint32(glfw.KeyUp)
	KeyDown     = uint32(glfw.KeyDown)
	KeyF        = uint32(glfw.KeyF)
	KeyP        = uint32(glfw.KeyP)
)

// MouseButton identifies a mouse button.
type MouseButton int

// Mouse buttons accepted by WithDragButton.
const (
	MouseLeft   = MouseButton(glfw.MouseButtonLeft)
	MouseRight  = MouseButton(glfw.MouseButtonRight)
	MouseMiddle = MouseButton(glfw.MouseButtonMiddle)
)
