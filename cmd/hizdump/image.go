package main

import (
	"fmt"
	"image"
	"os"

	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// levelImage converts a level to NRGBA, upscaling it with nearest-neighbor sampling so the longest
// side is at least minSize. Nearest-neighbor keeps each texel a solid block.
func levelImage(l pyramid.Level, near, far float32, minSize int) *image.NRGBA {
	gray := l.Image(near, far)
	scale := 1
	if longest := max(l.Width, l.Height); longest > 0 && longest < minSize {
		scale = (minSize + longest - 1) / longest
	}
	dst := image.NewNRGBA(image.Rect(0, 0, l.Width*scale, l.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return dst
}

func writeWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hizdump: %w", err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("hizdump: encode %s: %w", path, err)
	}
	return f.Close()
}
