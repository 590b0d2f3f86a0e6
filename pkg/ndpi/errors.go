package ndpi

import "errors"

var (
	// ErrTileSize is returned when the requested tile size is not a
	// multiple of 8 (the JPEG minimum-coded-unit granularity) in both
	// dimensions.
	ErrTileSize = errors.New("tile size must be a multiple of 8")

	// ErrLevelOutOfRange is returned when a level index has no page in
	// the container.
	ErrLevelOutOfRange = errors.New("level index out of range")

	// ErrFragmentOutOfRange is returned when a fragment index has no
	// entry in a page's fragment table.
	ErrFragmentOutOfRange = errors.New("fragment index out of range")
)
