package raster

// ProxyBuilderOption is a functional option for configuring a Proxy.
type ProxyBuilderOption func(*Proxy)

// WithSamples sets the number of depth samples per pixel. Values below 1 are raised to 1.
//
// Parameters:
//   - n: samples per pixel
//
// Returns:
//   - ProxyBuilderOption: option function to apply
func WithSamples(n int) ProxyBuilderOption {
	return func(p *Proxy) {
		p.samples = max(n, 1)
	}
}
