package cluster

import "github.com/Carmen-Shannon/oxy-vis/engine/compute"

// GridBuilderOption is a functional option for configuring a Grid.
type GridBuilderOption func(*Grid)

// WithGridDispatcher sets the dispatcher Build runs on.
//
// Parameters:
//   - d: the compute dispatcher
//
// Returns:
//   - GridBuilderOption: option function to apply
func WithGridDispatcher(d compute.Dispatcher) GridBuilderOption {
	return func(g *Grid) {
		g.dispatcher = d
	}
}
