package culler

import (
	"sync/atomic"
)

// DrawCommand is one indexed indirect draw. FirstInstance carries the instance index so the
// vertex stage can fetch the transform, and the material maps are passed through for shading.
type DrawCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32
	AlbedoMap     uint32
	SpecularMap   uint32
	NormalMap     uint32
}

// DrawCount is the host-readable summary of one phase.
type DrawCount struct {
	// CommandCount is the number of valid commands in the phase's region.
	CommandCount uint32
	// PrimitiveCount is the number of primitives the phase tested.
	PrimitiveCount uint32
}

type region struct {
	commands []DrawCommand
	cursor   atomic.Uint32
	dropped  atomic.Uint32
}

// DrawBuffer is a fixed-capacity indirect draw arena with one region per phase.
// Slots are reserved with an atomic increment, so command order within a region is unspecified.
type DrawBuffer struct {
	regions [2]region
}

// NewDrawBuffer allocates both regions with room for capacity commands each.
//
// Parameters:
//   - capacity: commands per region
//
// Returns:
//   - *DrawBuffer: the buffer with both regions empty
func NewDrawBuffer(capacity int) *DrawBuffer {
	b := &DrawBuffer{}
	for i := range b.regions {
		b.regions[i].commands = make([]DrawCommand, max(capacity, 0))
	}
	return b
}

// Capacity returns the number of commands each region can hold.
func (b *DrawBuffer) Capacity() int {
	return len(b.regions[0].commands)
}

// Reset empties the region of phase.
//
// Parameters:
//   - phase: the region to reset
func (b *DrawBuffer) Reset(phase Phase) {
	r := &b.regions[phase]
	r.cursor.Store(0)
	r.dropped.Store(0)
}

// Append reserves a slot in the region of phase and writes cmd into it.
// Safe for concurrent use. A full region drops the command.
//
// Parameters:
//   - phase: the target region
//   - cmd: the command to store
//
// Returns:
//   - bool: false if the region was full
func (b *DrawBuffer) Append(phase Phase, cmd DrawCommand) bool {
	r := &b.regions[phase]
	slot := r.cursor.Add(1) - 1
	if int(slot) >= len(r.commands) {
		r.dropped.Add(1)
		return false
	}
	r.commands[slot] = cmd
	return true
}

// Len returns the number of valid commands in the region of phase.
//
// Parameters:
//   - phase: the region
//
// Returns:
//   - int: the command count, never above Capacity
func (b *DrawBuffer) Len(phase Phase) int {
	r := &b.regions[phase]
	return min(int(r.cursor.Load()), len(r.commands))
}

// Dropped returns the number of commands rejected because the region was full.
//
// Parameters:
//   - phase: the region
//
// Returns:
//   - int: the dropped count since the last Reset
func (b *DrawBuffer) Dropped(phase Phase) int {
	return int(b.regions[phase].dropped.Load())
}

// Commands copies the valid commands of the region of phase.
//
// Parameters:
//   - phase: the region
//
// Returns:
//   - []DrawCommand: a snapshot of the region
func (b *DrawBuffer) Commands(phase Phase) []DrawCommand {
	r := &b.regions[phase]
	out := make([]DrawCommand, b.Len(phase))
	copy(out, r.commands)
	return out
}
