package cluster

import "math/bits"

// MaskWords is the number of 32-bit words in a LightMask.
const MaskWords = 8

// LightMask is a 256-bit set of point light indices affecting one cluster.
// Bit i%32 of word i/32 is light i.
type LightMask [MaskWords]uint32

// Has reports whether light i is in the mask.
//
// Parameters:
//   - i: light index
//
// Returns:
//   - bool: true if the bit is set
func (m LightMask) Has(i int) bool {
	if i < 0 || i >= MaskWords*32 {
		return false
	}
	return m[i/32]&(1<<(uint(i)%32)) != 0
}

// Set adds light i. Indices outside [0, 256) are ignored.
//
// Parameters:
//   - i: light index
func (m *LightMask) Set(i int) {
	if i < 0 || i >= MaskWords*32 {
		return
	}
	m[i/32] |= 1 << (uint(i) % 32)
}

// Count returns the number of lights in the mask.
func (m LightMask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount32(w)
	}
	return n
}

// Each calls fn for every light in the mask in increasing index order.
//
// Parameters:
//   - fn: the callback
func (m LightMask) Each(fn func(i int)) {
	for wi, w := range m {
		for w != 0 {
			b := bits.TrailingZeros32(w)
			fn(wi*32 + b)
			w &= w - 1
		}
	}
}
