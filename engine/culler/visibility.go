package culler

import (
	"math/bits"
	"sync/atomic"
)

// Visibility is a packed, concurrency-safe bitset with one bit per primitive.
// A set bit means the primitive was visible at the end of the last completed late phase.
// Writers only ever touch their own bit, so concurrent Set calls on one word never lose updates.
type Visibility struct {
	words []atomic.Uint32
	n     int
}

// NewVisibility creates a cleared bitset for n primitives.
//
// Parameters:
//   - n: number of primitives
//
// Returns:
//   - *Visibility: the bitset
func NewVisibility(n int) *Visibility {
	n = max(n, 0)
	return &Visibility{words: make([]atomic.Uint32, (n+31)/32), n: n}
}

// Len returns the number of addressable bits.
func (v *Visibility) Len() int {
	return v.n
}

// Get reports whether bit i is set. Out of range indices report false.
//
// Parameters:
//   - i: primitive index
//
// Returns:
//   - bool: the bit value
func (v *Visibility) Get(i int) bool {
	if i < 0 || i >= v.n {
		return false
	}
	return v.words[i>>5].Load()&(1<<(uint(i)&31)) != 0
}

// Set writes bit i. Out of range indices are ignored.
//
// Parameters:
//   - i: primitive index
//   - visible: the new value
func (v *Visibility) Set(i int, visible bool) {
	if i < 0 || i >= v.n {
		return
	}
	mask := uint32(1) << (uint(i) & 31)
	if visible {
		v.words[i>>5].Or(mask)
	} else {
		v.words[i>>5].And(^mask)
	}
}

// Count returns the number of set bits.
//
// Returns:
//   - int: the population count
func (v *Visibility) Count() int {
	total := 0
	for i := range v.words {
		total += bits.OnesCount32(v.words[i].Load())
	}
	return total
}

// Reset clears every bit.
func (v *Visibility) Reset() {
	for i := range v.words {
		v.words[i].Store(0)
	}
}

// Words copies the packed words, e.g. for upload to a storage buffer.
//
// Returns:
//   - []uint32: one word per 32 primitives, bit i%32 of word i/32 is primitive i
func (v *Visibility) Words() []uint32 {
	out := make([]uint32, len(v.words))
	for i := range v.words {
		out[i] = v.words[i].Load()
	}
	return out
}

// Load replaces the packed words, e.g. after a GPU readback. Extra words are ignored.
//
// Parameters:
//   - words: the packed bits
func (v *Visibility) Load(words []uint32) {
	for i := range v.words {
		var w uint32
		if i < len(words) {
			w = words[i]
		}
		if i == len(v.words)-1 && v.n%32 != 0 {
			w &= (1 << (uint(v.n) % 32)) - 1
		}
		v.words[i].Store(w)
	}
}
