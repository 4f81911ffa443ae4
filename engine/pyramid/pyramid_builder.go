package pyramid

import "github.com/Carmen-Shannon/oxy-vis/engine/compute"

// BuilderOption is a functional option for configuring a pyramid Builder.
type BuilderOption func(*builderImpl)

// WithDispatcher sets the dispatcher the resolve and reduction passes run on.
//
// Parameters:
//   - d: the compute dispatcher
//
// Returns:
//   - BuilderOption: option function to apply
func WithDispatcher(d compute.Dispatcher) BuilderOption {
	return func(b *builderImpl) {
		b.dispatcher = d
	}
}
