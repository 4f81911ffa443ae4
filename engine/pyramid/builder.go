package pyramid

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
)

// Builder owns pyramid storage and rebuilds it from depth every frame.
// Two pyramids are kept and used alternately, so the previously returned pyramid remains readable
// while the next one is being built.
type Builder interface {
	// Build reduces level0 into a full pyramid. level0 is copied; the caller keeps ownership.
	// A rejected level leaves the builder's storage and build count untouched.
	//
	// Parameters:
	//   - level0: linear depth at full resolution
	//
	// Returns:
	//   - *Pyramid: the rebuilt pyramid
	//   - error: ErrShortLevel if level0 has a negative size or fewer than Width*Height texels
	Build(level0 Level) (*Pyramid, error)

	// BuildFromTarget resolves a depth target straight into pyramid storage and reduces it.
	//
	// Parameters:
	//   - target: the multisampled device depth target
	//   - near, far: clip plane distances
	//
	// Returns:
	//   - *Pyramid: the rebuilt pyramid
	BuildFromTarget(target DepthTarget, near, far float32) *Pyramid

	// Builds returns the number of pyramids built so far.
	//
	// Returns:
	//   - uint64: the build count
	Builds() uint64
}

type builderImpl struct {
	mu         sync.Mutex
	dispatcher compute.Dispatcher
	buffers    [2]*Pyramid
	builds     uint64
}

var _ Builder = &builderImpl{}

// NewBuilder creates a pyramid Builder.
// Defaults to the process-wide compute dispatcher.
//
// Parameters:
//   - options: functional options to configure the builder
//
// Returns:
//   - Builder: the new builder
func NewBuilder(options ...BuilderOption) Builder {
	b := &builderImpl{}
	for _, option := range options {
		option(b)
	}
	if b.dispatcher == nil {
		b.dispatcher = compute.Default()
	}
	return b
}

func (b *builderImpl) Build(level0 Level) (*Pyramid, error) {
	if level0.Width < 0 || level0.Height < 0 || len(level0.Data) < level0.Width*level0.Height {
		return nil, fmt.Errorf("pyramid: %d texels for %dx%d: %w", len(level0.Data), level0.Width, level0.Height, ErrShortLevel)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.next(level0.Width, level0.Height)
	if len(p.levels) == 0 {
		return p, nil
	}
	copy(p.levels[0].Data, level0.Data)
	b.reduceAll(p)
	return p, nil
}

func (b *builderImpl) BuildFromTarget(target DepthTarget, near, far float32) *Pyramid {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.next(target.Width, target.Height)
	if len(p.levels) == 0 {
		return p
	}
	resolve(b.dispatcher, p.levels[0], target, near, far)
	b.reduceAll(p)
	return p
}

func (b *builderImpl) Builds() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

func (b *builderImpl) reduceAll(p *Pyramid) {
	for n := 1; n < len(p.levels); n++ {
		reduce(b.dispatcher, p.levels[n-1], p.levels[n])
	}
}

// next picks the buffer not returned last time and resizes it if the base size changed.
func (b *builderImpl) next(width, height int) *Pyramid {
	slot := b.builds % 2
	b.builds++
	p := b.buffers[slot]
	if p == nil || p.Width() != width || p.Height() != height {
		p = allocate(width, height)
		b.buffers[slot] = p
		common.Logger().Debug("pyramid storage allocated",
			"width", width,
			"height", height,
			"levels", len(p.levels),
		)
	}
	return p
}

func allocate(width, height int) *Pyramid {
	p := &Pyramid{levels: make([]Level, 0, LevelCount(width, height))}
	for i := 0; i < cap(p.levels); i++ {
		p.levels = append(p.levels, NewLevel(width, height))
		width = (width + 1) / 2
		height = (height + 1) / 2
	}
	return p
}
