package main

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/gpu"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
)

// depthTolerance absorbs float differences between the CPU and GPU reductions.
const depthTolerance = 1e-4

// crossCheck replays every frame on the GPU kernels and counts disagreements with the CPU pipeline.
type crossCheck struct {
	dev     gpu.Device
	cull    *gpu.CullPass
	pyramid *gpu.PyramidPass
	lights  *gpu.LightPass

	frames        int
	earlyMismatch int
	lateMismatch  int
	texelMismatch int
	maskMismatch  int
}

func newCrossCheck(scn scene.Scene, s renderer.Settings) (*crossCheck, error) {
	dev, err := gpu.NewDevice(gpu.WithLabel("cullbench"))
	if err != nil {
		return nil, err
	}
	c := &crossCheck{dev: dev}
	if c.cull, err = gpu.NewCullPass(dev, scn, gpu.WithLOD(s.LODBase, s.LODStep), gpu.WithCapacity(s.DrawCapacity)); err != nil {
		c.Release()
		return nil, err
	}
	if c.pyramid, err = gpu.NewPyramidPass(dev); err != nil {
		c.Release()
		return nil, err
	}
	if c.lights, err = gpu.NewLightPass(dev, s.ClusterX, s.ClusterY, s.ClusterZ); err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}

// Frame runs the GPU passes from the visibility state the CPU frame started with.
func (c *crossCheck) Frame(fc camera.FrameConstants, words []uint32, out renderer.FrameOutput, pointLights []light.PointLight) error {
	c.frames++
	c.cull.LoadVisibility(words)

	early, _, err := c.cull.Cull(culler.PhaseEarly, fc, nil)
	if err != nil {
		return err
	}
	c.earlyMismatch += drawDiff(early, out.Early)

	pyr, err := c.pyramid.Build(out.Pyramid.Level(0))
	if err != nil {
		return err
	}
	c.texelMismatch += texelDiff(pyr, out.Pyramid)

	late, _, err := c.cull.Cull(culler.PhaseLate, fc, out.Pyramid)
	if err != nil {
		return err
	}
	c.lateMismatch += drawDiff(late, out.Late)

	_, masks, err := c.lights.Run(fc, light.ToView(fc.View, pointLights, nil))
	if err != nil {
		return err
	}
	for i := range masks {
		if i >= len(out.LightMasks) || masks[i] != out.LightMasks[i] {
			c.maskMismatch++
		}
	}

	if c.earlyMismatch+c.lateMismatch > 0 && c.frames == 1 {
		common.Logger().Warn("gpu draw sets differ", "early", c.earlyMismatch, "late", c.lateMismatch)
	}
	return nil
}

// Print writes the mismatch totals.
func (c *crossCheck) Print(w io.Writer) {
	fmt.Fprintln(w, "GPU cross-check:")
	fmt.Fprintf(w, "  frames:            %d\n", c.frames)
	fmt.Fprintf(w, "  early draw diffs:  %d\n", c.earlyMismatch)
	fmt.Fprintf(w, "  late draw diffs:   %d\n", c.lateMismatch)
	fmt.Fprintf(w, "  pyramid texels:    %d\n", c.texelMismatch)
	fmt.Fprintf(w, "  light masks:       %d\n", c.maskMismatch)
}

func (c *crossCheck) Release() {
	if c.cull != nil {
		c.cull.Release()
	}
	if c.pyramid != nil {
		c.pyramid.Release()
	}
	if c.lights != nil {
		c.lights.Release()
	}
	c.dev.Release()
}

func compareDraws(a, b culler.DrawCommand) int {
	return cmp.Or(
		cmp.Compare(a.FirstInstance, b.FirstInstance),
		cmp.Compare(a.VertexOffset, b.VertexOffset),
		cmp.Compare(a.FirstIndex, b.FirstIndex),
		cmp.Compare(a.IndexCount, b.IndexCount),
	)
}

// drawDiff returns the size of the symmetric difference of two draw sets. Order is ignored.
func drawDiff(a, b []culler.DrawCommand) int {
	a = slices.SortedFunc(slices.Values(a), compareDraws)
	b = slices.SortedFunc(slices.Values(b), compareDraws)
	diff := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := compareDraws(a[i], b[j]); {
		case c == 0 && a[i] == b[j]:
			i++
			j++
		case c == 0:
			diff += 2
			i++
			j++
		case c < 0:
			diff++
			i++
		default:
			diff++
			j++
		}
	}
	return diff + len(a) - i + len(b) - j
}

// texelDiff counts texels that differ beyond depthTolerance. A level count mismatch counts every texel.
func texelDiff(a, b *pyramid.Pyramid) int {
	if a.Levels() != b.Levels() {
		return a.Width() * a.Height()
	}
	diff := 0
	for n := 0; n < a.Levels(); n++ {
		la, lb := a.Level(n), b.Level(n)
		for i := range la.Data {
			if math.Abs(float64(la.Data[i]-lb.Data[i])) > depthTolerance {
				diff++
			}
		}
	}
	return diff
}
