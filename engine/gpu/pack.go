package gpu

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
)

// levelEntrySize is the byte size of one PyramidLevel table entry.
const levelEntrySize = 16

// LevelRange locates one pyramid level inside the flattened depth buffer.
type LevelRange struct {
	Width  int
	Height int
	// Offset is the index of the level's first texel, in float32 units.
	Offset int
}

// PyramidLayout lays out a full chain for a width x height base, level after level.
//
// Parameters:
//   - width, height: level 0 size
//
// Returns:
//   - []LevelRange: one entry per level
//   - int: total texel count
func PyramidLayout(width, height int) ([]LevelRange, int) {
	n := pyramid.LevelCount(width, height)
	out := make([]LevelRange, n)
	offset := 0
	for i := range out {
		out[i] = LevelRange{Width: width, Height: height, Offset: offset}
		offset += width * height
		width, height = (width+1)/2, (height+1)/2
	}
	return out, offset
}

// PackLevelTable serializes the level table read by the cull kernel.
//
// Parameters:
//   - layout: the level ranges
//
// Returns:
//   - []byte: 16 bytes per level
func PackLevelTable(layout []LevelRange) []byte {
	buf := make([]byte, len(layout)*levelEntrySize)
	for i, l := range layout {
		binary.LittleEndian.PutUint32(buf[i*levelEntrySize:], uint32(l.Width))
		binary.LittleEndian.PutUint32(buf[i*levelEntrySize+4:], uint32(l.Height))
		binary.LittleEndian.PutUint32(buf[i*levelEntrySize+8:], uint32(l.Offset))
	}
	return buf
}

// PackPyramid flattens every level of p into one float32 array.
//
// Parameters:
//   - p: the pyramid
//
// Returns:
//   - []byte: level texels, level 0 first
//   - []LevelRange: where each level starts
func PackPyramid(p *pyramid.Pyramid) ([]byte, []LevelRange) {
	layout, total := PyramidLayout(p.Width(), p.Height())
	buf := make([]byte, total*4)
	for i, r := range layout {
		l := p.Level(i)
		for j, v := range l.Data[:r.Width*r.Height] {
			binary.LittleEndian.PutUint32(buf[(r.Offset+j)*4:], math.Float32bits(v))
		}
	}
	return buf, layout
}

// UnpackPyramid is the inverse of PackPyramid.
//
// Parameters:
//   - data: the flattened texels
//   - layout: where each level starts
//
// Returns:
//   - *pyramid.Pyramid: the pyramid
//   - error: pyramid.ErrLevelChain if layout is not a full chain
func UnpackPyramid(data []byte, layout []LevelRange) (*pyramid.Pyramid, error) {
	levels := make([]pyramid.Level, len(layout))
	for i, r := range layout {
		l := pyramid.NewLevel(r.Width, r.Height)
		for j := range l.Data {
			at := (r.Offset + j) * 4
			if at+4 > len(data) {
				break
			}
			l.Data[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[at:]))
		}
		levels[i] = l
	}
	return pyramid.FromLevels(levels)
}

// packWords serializes visibility words.
func packWords(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// unpackWords is the inverse of packWords.
func unpackWords(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}
