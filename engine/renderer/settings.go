package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/engine/cluster"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
)

// MaxLights is the number of point lights a cluster light mask can address.
const MaxLights = light.MaxPointLights

var (
	// ErrInvalidSettings is returned when Settings fail validation.
	ErrInvalidSettings = errors.New("invalid renderer settings")
	// ErrInvalidFrame is returned when frame constants describe a degenerate camera or target.
	ErrInvalidFrame = errors.New("invalid frame constants")
)

// Settings is the configuration surface of the visibility pipeline.
type Settings struct {
	// LODBase is the distance at which LOD 1 starts.
	LODBase float32 `json:"lod_base"`
	// LODStep is the ratio between consecutive LOD thresholds. Must be > 1.
	LODStep float32 `json:"lod_step"`

	// ClusterX, ClusterY and ClusterZ subdivide the view frustum for light assignment.
	ClusterX int `json:"cluster_x"`
	ClusterY int `json:"cluster_y"`
	ClusterZ int `json:"cluster_z"`

	// DrawCapacity is the size of each draw region. 0 selects the primitive count.
	DrawCapacity int `json:"draw_capacity"`

	// GroupLanes is the number of lanes sharing the lights of one cluster.
	GroupLanes int `json:"group_lanes"`

	// Workers is the compute pool size. 0 selects runtime.NumCPU().
	Workers int `json:"workers"`

	// FinalPyramid rebuilds the depth pyramid after the late phase so downstream passes see every draw.
	FinalPyramid bool `json:"final_pyramid"`
}

// DefaultSettings returns the default pipeline configuration.
//
// Returns:
//   - Settings: the defaults
func DefaultSettings() Settings {
	return Settings{
		LODBase:      culler.DefaultLODBase,
		LODStep:      culler.DefaultLODStep,
		ClusterX:     cluster.DefaultX,
		ClusterY:     cluster.DefaultY,
		ClusterZ:     cluster.DefaultZ,
		GroupLanes:   cluster.DefaultGroupLanes,
		FinalPyramid: true,
	}
}

// Validate reports the first invalid field.
//
// Returns:
//   - error: nil, or ErrInvalidSettings wrapped with the offending field
func (s Settings) Validate() error {
	switch {
	case !(s.LODBase > 0):
		return fmt.Errorf("renderer: lod_base %v must be > 0: %w", s.LODBase, ErrInvalidSettings)
	case !(s.LODStep > 1):
		return fmt.Errorf("renderer: lod_step %v must be > 1: %w", s.LODStep, ErrInvalidSettings)
	case s.ClusterX < 1 || s.ClusterY < 1 || s.ClusterZ < 1:
		return fmt.Errorf("renderer: cluster grid %dx%dx%d: %w", s.ClusterX, s.ClusterY, s.ClusterZ, ErrInvalidSettings)
	case s.DrawCapacity < 0:
		return fmt.Errorf("renderer: draw_capacity %d must be >= 0: %w", s.DrawCapacity, ErrInvalidSettings)
	case s.GroupLanes < 1:
		return fmt.Errorf("renderer: group_lanes %d must be >= 1: %w", s.GroupLanes, ErrInvalidSettings)
	case s.Workers < 0:
		return fmt.Errorf("renderer: workers %d must be >= 0: %w", s.Workers, ErrInvalidSettings)
	}
	return nil
}
