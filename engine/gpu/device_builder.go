package gpu

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*deviceImpl)

// WithFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that applies the adapter option to a device
func WithFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithLabel sets the device debug label.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - DeviceBuilderOption: a function that applies the label to a device
func WithLabel(label string) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.label = label
	}
}
