// Package pyramid builds the hierarchical depth pyramid used for occlusion culling.
// Level 0 holds linear view depth (positive, growing with distance) at full resolution and
// every further level holds the maximum of the 2x2 block beneath it.
package pyramid

import (
	"image"
	"image/color"
	"math"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// DepthTarget is a multisampled device depth buffer as written by the rasterizer.
// Depth values are in [0, 1] and stored sample-major per pixel: pixel (x, y) sample s lives at
// Depth[(y*Width+x)*Samples+s].
type DepthTarget struct {
	Width   int
	Height  int
	Samples int
	Depth   []float32
}

// NewDepthTarget allocates a depth target cleared to the far plane.
//
// Parameters:
//   - width, height: size in pixels
//   - samples: samples per pixel (values below 1 are raised to 1)
//
// Returns:
//   - DepthTarget: the cleared target
func NewDepthTarget(width, height, samples int) DepthTarget {
	samples = max(samples, 1)
	t := DepthTarget{
		Width:   max(width, 0),
		Height:  max(height, 0),
		Samples: samples,
		Depth:   make([]float32, max(width, 0)*max(height, 0)*samples),
	}
	t.Clear()
	return t
}

// Clear resets every sample to device depth 1.
func (t DepthTarget) Clear() {
	for i := range t.Depth {
		t.Depth[i] = 1
	}
}

// Index returns the offset of sample s of pixel (x, y) in Depth.
//
// Parameters:
//   - x, y: pixel coordinates
//   - s: sample index
//
// Returns:
//   - int: the slice offset
func (t DepthTarget) Index(x, y, s int) int {
	return (y*t.Width+x)*t.Samples + s
}

// Level is one mip of the pyramid: a row-major grid of linear depths.
type Level struct {
	Width  int
	Height int
	Data   []float32
}

// NewLevel allocates a level of the given size.
//
// Parameters:
//   - width, height: size in texels
//
// Returns:
//   - Level: the zeroed level
func NewLevel(width, height int) Level {
	width, height = max(width, 0), max(height, 0)
	return Level{Width: width, Height: height, Data: make([]float32, width*height)}
}

// Fill sets every texel to v.
//
// Parameters:
//   - v: the value to store
func (l Level) Fill(v float32) {
	for i := range l.Data {
		l.Data[i] = v
	}
}

// At returns the texel at (x, y) with coordinates clamped to the edge.
// An empty level returns +Inf so nothing is ever treated as occluded by it.
//
// Parameters:
//   - x, y: texel coordinates
//
// Returns:
//   - float32: the stored depth
func (l Level) At(x, y int) float32 {
	if l.Width == 0 || l.Height == 0 {
		return float32(math.Inf(1))
	}
	x = common.Clamp(x, 0, l.Width-1)
	y = common.Clamp(y, 0, l.Height-1)
	return l.Data[y*l.Width+x]
}

// Set stores v at (x, y). Out of range coordinates are ignored.
//
// Parameters:
//   - x, y: texel coordinates
//   - v: the depth to store
func (l Level) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return
	}
	l.Data[y*l.Width+x] = v
}

// Image converts the level to a 16-bit grayscale image for inspection.
// Depth near maps to black and far maps to white.
//
// Parameters:
//   - near, far: the depth range to normalize against
//
// Returns:
//   - *image.Gray16: the normalized image
func (l Level) Image(near, far float32) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, l.Width, l.Height))
	span := far - near
	if span <= 0 {
		span = 1
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			n := common.Clamp((l.Data[y*l.Width+x]-near)/span, 0, 1)
			img.SetGray16(x, y, color.Gray16{Y: uint16(n*math.MaxUint16 + 0.5)})
		}
	}
	return img
}

// FromImage is the inverse of Level.Image. Any image type is accepted and converted to 16-bit gray.
//
// Parameters:
//   - img: the source image
//   - near, far: the depth range the gray values are normalized against
//
// Returns:
//   - Level: a level with the image's dimensions
func FromImage(img image.Image, near, far float32) Level {
	b := img.Bounds()
	l := NewLevel(b.Dx(), b.Dy())
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			l.Data[y*l.Width+x] = near + float32(g.Y)/math.MaxUint16*(far-near)
		}
	}
	return l
}
