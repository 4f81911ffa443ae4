package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type glfwWindow struct {
	window *glfw.Window
	closed bool
}

// limit maps an unbounded (zero) limit to glfw.DontCare.
func limit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

// newPlatformWindow creates a window without a client API and forwards its events to w.
// Escape closes the window.
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("glfw create window: %w", err)
	}
	l := w.limits
	win.SetSizeLimits(limit(l.MinWidth), limit(l.MinHeight), limit(l.MaxWidth), limit(l.MaxHeight))
	w.internalWindow = &glfwWindow{window: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		x, y := win.GetCursorPos()
		w.button(MouseButton(button), action == glfw.Press, int32(x), int32(y))
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.onMouseMove != nil {
			w.onMouseMove(int32(x), int32(y))
		}
	})
	// Framebuffer size, not window size: the two differ on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func platform(w *engineWindow) *glfwWindow {
	gw, _ := w.internalWindow.(*glfwWindow)
	return gw
}

func platformSetTitle(w *engineWindow, title string) {
	if gw := platform(w); gw != nil && !gw.closed {
		gw.window.SetTitle(title)
	}
}

func platformIsRunning(w *engineWindow) bool {
	gw := platform(w)
	return gw != nil && !gw.closed && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the window and terminates GLFW.
func platformCloseWindow(w *engineWindow) error {
	gw := platform(w)
	if gw == nil {
		return errors.New("window: not initialized")
	}
	if gw.closed {
		return nil
	}
	gw.closed = true
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformPollEvents processes pending events without blocking and reports whether the window is still open.
func platformPollEvents(w *engineWindow) bool {
	if !platformIsRunning(w) {
		return false
	}
	glfw.PollEvents()
	return platformIsRunning(w)
}
