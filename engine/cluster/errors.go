package cluster

import "errors"

// ErrInvalidSubdivision is returned when a grid dimension is not positive.
var ErrInvalidSubdivision = errors.New("cluster subdivision must be positive")
