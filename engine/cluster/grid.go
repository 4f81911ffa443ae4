// Package cluster partitions the view frustum into a 3D grid of clusters and assigns point lights to them.
// Clusters tile the screen evenly in x and y and split depth exponentially, so every slice covers the
// same depth ratio.
package cluster

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/go-gl/mathgl/mgl32"
)

// Default grid subdivision.
const (
	DefaultX = 12
	DefaultY = 12
	DefaultZ = 24
)

// Cluster is one cell of the grid: a view-space bounding box and the depth range of its slice.
type Cluster struct {
	AABB common.AABB
	Near float32
	Far  float32
}

// Grid is a Sx x Sy x Sz cluster grid. It is rebuilt from the camera every frame and read by the
// light assigner and the shading stage. A Grid must not be read while Build is running.
type Grid struct {
	sx, sy, sz int
	clusters   []Cluster
	slices     []float32

	near, far     float32
	width, height uint32

	dispatcher compute.Dispatcher
}

// NewGrid allocates a grid with the given subdivision.
// Defaults to the process-wide compute dispatcher.
//
// Parameters:
//   - sx, sy, sz: number of clusters along x, y and depth
//   - options: functional options to configure the grid
//
// Returns:
//   - *Grid: the grid, empty until Build is called
//   - error: ErrInvalidSubdivision, wrapped, if any count is below 1
func NewGrid(sx, sy, sz int, options ...GridBuilderOption) (*Grid, error) {
	if sx < 1 || sy < 1 || sz < 1 {
		return nil, fmt.Errorf("cluster: grid %dx%dx%d: %w", sx, sy, sz, ErrInvalidSubdivision)
	}
	g := &Grid{
		sx:       sx,
		sy:       sy,
		sz:       sz,
		clusters: make([]Cluster, sx*sy*sz),
		slices:   make([]float32, sz+1),
	}
	for _, option := range options {
		option(g)
	}
	if g.dispatcher == nil {
		g.dispatcher = compute.Default()
	}
	return g, nil
}

// Dimensions returns the subdivision counts.
func (g *Grid) Dimensions() (int, int, int) {
	return g.sx, g.sy, g.sz
}

// Len returns the number of clusters.
func (g *Grid) Len() int {
	return len(g.clusters)
}

// Cluster returns cluster i.
//
// Parameters:
//   - i: linear cluster index
//
// Returns:
//   - Cluster: the cluster
func (g *Grid) Cluster(i int) Cluster {
	return g.clusters[i]
}

// Clusters returns the cluster table. The slice is owned by the grid and overwritten by Build.
func (g *Grid) Clusters() []Cluster {
	return g.clusters
}

// Index returns the linear index of cluster (x, y, z). x varies fastest.
//
// Parameters:
//   - x, y, z: cluster coordinates
//
// Returns:
//   - int: x + y*Sx + z*Sx*Sy
func (g *Grid) Index(x, y, z int) int {
	return x + y*g.sx + z*g.sx*g.sy
}

// Coords is the inverse of Index.
//
// Parameters:
//   - i: linear cluster index
//
// Returns:
//   - x, y, z: cluster coordinates
func (g *Grid) Coords(i int) (x, y, z int) {
	plane := g.sx * g.sy
	z = i / plane
	i -= z * plane
	return i % g.sx, i / g.sx, z
}

// SliceDepth returns the view depth of the boundary between slices k-1 and k.
// SliceDepth(0) is the near plane and SliceDepth(Sz) is the far plane, both exactly.
//
// Parameters:
//   - k: boundary index in [0, Sz]
//
// Returns:
//   - float32: the positive boundary depth from the last Build
func (g *Grid) SliceDepth(k int) float32 {
	return g.slices[common.Clamp(k, 0, g.sz)]
}

// DepthFactors returns the scale and bias that map a linear depth d to its slice:
// slice = floor(ln(d)*scale - bias).
//
// Returns:
//   - scale: Sz / ln(far/near)
//   - bias: Sz * ln(near) / ln(far/near)
func (g *Grid) DepthFactors() (scale, bias float32) {
	logRatio := math.Log(float64(g.far) / float64(g.near))
	if !(logRatio > 0) {
		return 0, 0
	}
	scale = float32(float64(g.sz) / logRatio)
	bias = float32(float64(g.sz) * math.Log(float64(g.near)) / logRatio)
	return scale, bias
}

// Lookup returns the cluster holding a pixel at a linear view depth.
// Coordinates outside the screen or depth range are clamped to the border clusters.
//
// Parameters:
//   - px, py: pixel coordinates, origin at the top-left corner
//   - depth: positive linear view depth
//
// Returns:
//   - int: the linear cluster index
func (g *Grid) Lookup(px, py, depth float32) int {
	scale, bias := g.DepthFactors()
	z := 0
	if depth > 0 {
		z = int(math.Floor(math.Log(float64(depth))*float64(scale) - float64(bias)))
	}
	tileW := float32(max(g.width, 1)) / float32(g.sx)
	tileH := float32(max(g.height, 1)) / float32(g.sy)
	x := int(math.Floor(float64(px / tileW)))
	y := int(math.Floor(float64(py / tileH)))
	return g.Index(
		common.Clamp(x, 0, g.sx-1),
		common.Clamp(y, 0, g.sy-1),
		common.Clamp(z, 0, g.sz-1),
	)
}

// Build recomputes every cluster for the camera in fc. One work item runs per cluster.
//
// Parameters:
//   - fc: the frame constants
func (g *Grid) Build(fc camera.FrameConstants) {
	g.near, g.far = fc.Near, fc.Far
	g.width, g.height = fc.Width, fc.Height

	ratio := float64(fc.Far) / float64(fc.Near)
	for k := range g.slices {
		g.slices[k] = float32(float64(fc.Near) * math.Pow(ratio, float64(k)/float64(g.sz)))
	}
	g.slices[0] = fc.Near
	g.slices[g.sz] = fc.Far

	tileW := float32(fc.Width) / float32(g.sx)
	tileH := float32(fc.Height) / float32(g.sy)
	w, h := float32(max(fc.Width, 1)), float32(max(fc.Height, 1))
	invProj := fc.InvProj

	g.dispatcher.Dispatch("cluster.build", len(g.clusters), func(i int) {
		x, y, z := g.Coords(i)
		near, far := g.slices[z], g.slices[z+1]

		corners := [4][2]float32{
			{float32(x) * tileW, float32(y) * tileH},
			{float32(x+1) * tileW, float32(y) * tileH},
			{float32(x) * tileW, float32(y+1) * tileH},
			{float32(x+1) * tileW, float32(y+1) * tileH},
		}
		box := common.EmptyAABB()
		for _, c := range corners {
			ray := nearPlanePoint(invProj, c[0]/w*2-1, 1-c[1]/h*2)
			box.Extend(atDepth(ray, near))
			box.Extend(atDepth(ray, far))
		}
		g.clusters[i] = Cluster{AABB: box, Near: near, Far: far}
	})
}

// nearPlanePoint unprojects an NDC position at device depth 0.
func nearPlanePoint(invProj mgl32.Mat4, ndcX, ndcY float32) mgl32.Vec3 {
	p := invProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 0, 1})
	return p.Vec3().Mul(1 / p[3])
}

// atDepth slides a point along its eye ray to view depth d.
func atDepth(p mgl32.Vec3, d float32) mgl32.Vec3 {
	q := p.Mul(d / -p[2])
	q[2] = -d
	return q
}
