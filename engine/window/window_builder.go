package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the initial title bar text.
//
// Parameters:
//   - title: the title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the requested client area size. The framebuffer may be larger on high-DPI displays.
//
// Parameters:
//   - width: width in screen coordinates
//   - height: height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithMinSize sets the smallest size the user can shrink the window to.
//
// Parameters:
//   - width: minimum width, 0 for no limit
//   - height: minimum height, 0 for no limit
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits.MinWidth = width
		w.limits.MinHeight = height
	}
}

// WithMaxSize sets the largest size the window can be resized to.
//
// Parameters:
//   - width: maximum width, 0 for no limit
//   - height: maximum height, 0 for no limit
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits.MaxWidth = width
		w.limits.MaxHeight = height
	}
}

// WithDragButton selects the mouse button that drives the drag callbacks. Defaults to MouseMiddle.
//
// Parameters:
//   - button: the button
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithDragButton(button MouseButton) WindowBuilderOption {
	return func(w *engineWindow) {
		w.dragButton = button
	}
}
