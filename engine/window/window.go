// Package window provides the GLFW window used by the interactive tools. The window carries input
// and a title bar; frames are produced off-screen by the visibility pipeline.
package window

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidSize is returned by NewWindow when the requested size or limits are inconsistent.
var ErrInvalidSize = errors.New("invalid window size")

// Window delivers input events and resize notifications to the engine.
// Every method except the callback setters must be called from the thread that created the window.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function called with the vertical wheel offset (positive away from the user).
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the function called on key press and key repeat.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the function called on key release.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragCallbacks sets the functions called when the drag button is pressed and released.
	//
	// Parameters:
	//   - begin: receives the cursor position on press
	//   - end: receives the cursor position on release
	SetDragCallbacks(begin, end func(x, y int32))

	// SetMouseMoveCallback sets the function called with every cursor position.
	SetMouseMoveCallback(callback func(x, y int32))

	// SetTitle replaces the title bar text.
	SetTitle(title string)

	// IsRunning reports whether the window is open and has not been asked to close.
	IsRunning() bool

	// Close destroys the window. Repeated calls are no-ops.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// ProcessMessages polls events until the window closes, calling the update callback each iteration.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// SizeLimits bounds the window size. Zero fields are unbounded.
type SizeLimits struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// Validate checks that width x height lies inside the limits and that no limit is negative.
//
// Parameters:
//   - width: the requested width
//   - height: the requested height
//
// Returns:
//   - error: ErrInvalidSize, wrapped with the offending values
func (l SizeLimits) Validate(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("window: size %dx%d: %w", width, height, ErrInvalidSize)
	}
	if l.MinWidth < 0 || l.MinHeight < 0 || l.MaxWidth < 0 || l.MaxHeight < 0 {
		return fmt.Errorf("window: negative limit %+v: %w", l, ErrInvalidSize)
	}
	if width < l.MinWidth || height < l.MinHeight {
		return fmt.Errorf("window: size %dx%d below minimum %dx%d: %w", width, height, l.MinWidth, l.MinHeight, ErrInvalidSize)
	}
	if (l.MaxWidth > 0 && width > l.MaxWidth) || (l.MaxHeight > 0 && height > l.MaxHeight) {
		return fmt.Errorf("window: size %dx%d above maximum %dx%d: %w", width, height, l.MaxWidth, l.MaxHeight, ErrInvalidSize)
	}
	return nil
}

type engineWindow struct {
	title         string
	width, height int
	limits        SizeLimits
	dragButton    MouseButton

	// internalWindow is the *glfwWindow once created.
	internalWindow any

	onUpdate    func()
	onResize    func(width, height int)
	onScroll    func(delta float32)
	onKeyDown   func(keyCode uint32)
	onKeyUp     func(keyCode uint32)
	onDragBegin func(x, y int32)
	onDragEnd   func(x, y int32)
	onMouseMove func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. Defaults are a 1280x720 window titled "oxy-vis" that
// cannot shrink below 320x240 and drags with the middle button.
// Must be called from the main goroutine; the calling thread is locked to the OS thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: ErrInvalidSize, or the wrapped GLFW error
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := w.limits.Validate(w.width, w.height); err != nil {
		return nil, err
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:      "oxy-vis",
		width:      1280,
		height:     720,
		limits:     SizeLimits{MinWidth: 320, MinHeight: 240},
		dragButton: MouseMiddle,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetDragCallbacks(begin, end func(x, y int32)) {
	w.onDragBegin = begin
	w.onDragEnd = end
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunning(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for platformPollEvents(w) {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// resized records a framebuffer size change. Minimized windows report 0x0 and are passed through;
// the engine keeps its previous target for those.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// button dispatches a mouse button transition to the drag callbacks.
func (w *engineWindow) button(b MouseButton, pressed bool, x, y int32) {
	if b != w.dragButton {
		return
	}
	if pressed && w.onDragBegin != nil {
		w.onDragBegin(x, y)
	} else if !pressed && w.onDragEnd != nil {
		w.onDragEnd(x, y)
	}
}
