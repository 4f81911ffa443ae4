package culler

import "errors"

var (
	// ErrCapacityTooSmall is returned when a draw region cannot hold one command per primitive.
	ErrCapacityTooSmall = errors.New("draw capacity below primitive count")
	// ErrInvalidLODParams is returned for a non-positive LOD base or a LOD step not above 1.
	ErrInvalidLODParams = errors.New("invalid LOD parameters")
)
