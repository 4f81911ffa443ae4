package cluster

import "github.com/Carmen-Shannon/oxy-vis/engine/compute"

// AssignerBuilderOption is a functional option for configuring an Assigner.
type AssignerBuilderOption func(*assignerImpl)

// WithGroupLanes sets how many lanes share the lights of one cluster. Values below 1 are raised to 1.
//
// Parameters:
//   - n: lanes per group
//
// Returns:
//   - AssignerBuilderOption: option function to apply
func WithGroupLanes(n int) AssignerBuilderOption {
	return func(a *assignerImpl) {
		a.lanes = max(n, 1)
	}
}

// WithDispatcher sets the dispatcher Assign runs on.
//
// Parameters:
//   - d: the compute dispatcher
//
// Returns:
//   - AssignerBuilderOption: option function to apply
func WithDispatcher(d compute.Dispatcher) AssignerBuilderOption {
	return func(a *assignerImpl) {
		a.dispatcher = d
	}
}
