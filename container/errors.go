package container

import "errors"

var (
	// ErrNotFound is returned for missing containers, groups, arrays and
	// attributes.
	ErrNotFound = errors.New("container: not found")
	// ErrReadOnly is returned for writes through a read-only container.
	ErrReadOnly = errors.New("container: read-only")
	// ErrShapeMismatch is returned when an existing array disagrees with the
	// requested type or shape.
	ErrShapeMismatch = errors.New("container: shape or type mismatch")
	// ErrInvalidSelection is returned for selections outside the source
	// buffer or the array.
	ErrInvalidSelection = errors.New("container: invalid selection")
	// ErrInvalidName is returned for empty or reserved names.
	ErrInvalidName = errors.New("container: invalid name")
	// ErrClosed is returned when a closed handle is used.
	ErrClosed = errors.New("container: closed")
	// ErrCorrupt is returned for metadata that cannot be decoded.
	ErrCorrupt = errors.New("container: corrupt metadata")
)
