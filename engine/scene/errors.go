package scene

import "errors"

var (
	// ErrNoLODs is returned when a primitive has an empty LOD table.
	ErrNoLODs = errors.New("primitive has no LODs")
	// ErrTooManyLODs is returned when a primitive has more than MaxLODs entries.
	ErrTooManyLODs = errors.New("primitive has too many LODs")
	// ErrInstanceOutOfRange is returned when a primitive refers to a missing instance.
	ErrInstanceOutOfRange = errors.New("instance index out of range")
	// ErrMaterialOutOfRange is returned when a primitive refers to a missing material.
	ErrMaterialOutOfRange = errors.New("material index out of range")
	// ErrTooManyLights is returned when the scene holds more point lights than a light mask can address.
	ErrTooManyLights = errors.New("too many point lights")
)
