package compute

// DispatcherBuilderOption is a functional option for configuring a Dispatcher.
type DispatcherBuilderOption func(*dispatcherImpl)

// WithWorkers sets the number of pool workers. Values below 1 are raised to 1.
//
// Parameters:
//   - n: worker count
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithWorkers(n int) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		d.workers = max(n, 1)
	}
}

// WithWorkgroupSize sets how many work items one pool task executes. Values below 1 are raised to 1.
//
// Parameters:
//   - n: items per task
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithWorkgroupSize(n int) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		d.workgroupSize = max(n, 1)
	}
}

// WithQueueSize sets the capacity of the pool's task queue.
//
// Parameters:
//   - n: queued task capacity (minimum 1)
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithQueueSize(n int) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		d.queueSize = max(n, 1)
	}
}
