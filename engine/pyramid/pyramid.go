package pyramid

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
)

// ErrLevelChain is returned when levels do not form a halving chain down to 1x1.
var ErrLevelChain = errors.New("levels do not form a pyramid")

// ErrShortLevel is returned by Builder.Build when a level holds fewer texels than its size.
var ErrShortLevel = errors.New("level data shorter than its size")

// Pyramid is an immutable max-depth mip chain. Level 0 is full resolution and the last level is 1x1.
// A Pyramid returned by a Builder stays valid until the Builder has produced two further pyramids.
type Pyramid struct {
	levels []Level
}

// FromLevels wraps levels reduced elsewhere, for example on the GPU. The slices are not copied.
//
// Parameters:
//   - levels: level 0 first, each level half the previous size rounded up, ending at 1x1
//
// Returns:
//   - *Pyramid: the pyramid
//   - error: ErrLevelChain if a level has the wrong size or too little data
func FromLevels(levels []Level) (*Pyramid, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("pyramid: no levels: %w", ErrLevelChain)
	}
	want := LevelCount(levels[0].Width, levels[0].Height)
	if len(levels) != want {
		return nil, fmt.Errorf("pyramid: %d levels for %dx%d, want %d: %w", len(levels), levels[0].Width, levels[0].Height, want, ErrLevelChain)
	}
	w, h := levels[0].Width, levels[0].Height
	for i, l := range levels {
		if l.Width != w || l.Height != h || len(l.Data) < w*h {
			return nil, fmt.Errorf("pyramid: level %d is %dx%d, want %dx%d: %w", i, l.Width, l.Height, w, h, ErrLevelChain)
		}
		w, h = (w+1)/2, (h+1)/2
	}
	return &Pyramid{levels: levels}, nil
}

// Levels returns the number of mip levels.
//
// Returns:
//   - int: level count, 0 for an empty pyramid
func (p *Pyramid) Levels() int {
	return len(p.levels)
}

// Level returns mip n. The returned level shares storage with the pyramid and must not be modified.
//
// Parameters:
//   - n: mip index in [0, Levels())
//
// Returns:
//   - Level: the level
func (p *Pyramid) Level(n int) Level {
	return p.levels[n]
}

// Width returns the width of level 0.
func (p *Pyramid) Width() int {
	if len(p.levels) == 0 {
		return 0
	}
	return p.levels[0].Width
}

// Height returns the height of level 0.
func (p *Pyramid) Height() int {
	if len(p.levels) == 0 {
		return 0
	}
	return p.levels[0].Height
}

// At returns texel (x, y) of level n, clamped to the level edge.
//
// Parameters:
//   - n: mip index
//   - x, y: texel coordinates
//
// Returns:
//   - float32: the stored max depth
func (p *Pyramid) At(n, x, y int) float32 {
	return p.levels[n].At(x, y)
}

// SampleFootprint returns a conservative occluder depth for a screen rectangle given in level 0 pixels.
// The level is chosen so the rectangle spans at most two texels per axis, and the 2x2 texels
// starting at the rectangle's minimum corner are sampled.
//
// Parameters:
//   - minX, minY, maxX, maxY: the rectangle in level 0 pixel coordinates
//
// Returns:
//   - float32: the largest depth stored under the rectangle, +Inf for an empty pyramid
func (p *Pyramid) SampleFootprint(minX, minY, maxX, maxY float32) float32 {
	if len(p.levels) == 0 {
		return float32(math.Inf(1))
	}
	size := max(maxX-minX, maxY-minY)
	n := common.Clamp(common.CeilLog2(size), 0, len(p.levels)-1)
	scale := float32(uint32(1) << n)
	x := int(math.Floor(float64(minX / scale)))
	y := int(math.Floor(float64(minY / scale)))

	l := p.levels[n]
	x = common.Clamp(x, 0, max(l.Width-1, 0))
	y = common.Clamp(y, 0, max(l.Height-1, 0))
	return max(l.At(x, y), l.At(x+1, y), l.At(x, y+1), l.At(x+1, y+1))
}

// LevelCount returns the number of levels in a full chain for a width x height base.
//
// Parameters:
//   - width, height: level 0 size
//
// Returns:
//   - int: levels down to and including 1x1
func LevelCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	n := 1
	for width > 1 || height > 1 {
		width = (width + 1) / 2
		height = (height + 1) / 2
		n++
	}
	return n
}

// Resolve converts a multisampled device depth target to linear view depth, keeping the farthest sample.
// It runs on the process-wide dispatcher; Builders resolve through their own dispatcher instead.
//
// Parameters:
//   - target: the depth target
//   - near, far: clip plane distances used when the depth was written
//
// Returns:
//   - Level: a newly allocated level 0
func Resolve(target DepthTarget, near, far float32) Level {
	dst := NewLevel(target.Width, target.Height)
	resolve(compute.Default(), dst, target, near, far)
	return dst
}

func resolve(d compute.Dispatcher, dst Level, target DepthTarget, near, far float32) {
	samples := max(target.Samples, 1)
	d.Dispatch("pyramid.resolve", dst.Width*dst.Height, func(i int) {
		base := i * samples
		var deepest float32
		for s := 0; s < samples; s++ {
			z := common.Clamp(target.Depth[base+s], 0, 1)
			deepest = max(deepest, common.LinearizeDepth(z, near, far))
		}
		dst.Data[i] = deepest
	})
}

func reduce(d compute.Dispatcher, src, dst Level) {
	d.Dispatch("pyramid.reduce", dst.Width*dst.Height, func(i int) {
		x := (i % dst.Width) * 2
		y := (i / dst.Width) * 2
		dst.Data[i] = max(src.At(x, y), src.At(x+1, y), src.At(x, y+1), src.At(x+1, y+1))
	})
}
