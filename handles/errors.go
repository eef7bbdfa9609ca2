package handles

import "errors"

var (
	// ErrUnsupportedSplit is returned for any split other than (1,1,1).
	ErrUnsupportedSplit = errors.New("handles: unsupported split")
	// ErrNotOpen is returned by Get on a cache that is not open.
	ErrNotOpen = errors.New("handles: cache not open")
	// ErrAlreadyOpen is returned by Open on an open cache.
	ErrAlreadyOpen = errors.New("handles: cache already open")
)
