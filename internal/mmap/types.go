package mmap

import "errors"

// AccessPattern is a hint about how mapped data will be read.
type AccessPattern int

const (
	// AccessDefault gives no specific advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects a front-to-back scan.
	AccessSequential
	// AccessRandom expects scattered reads.
	AccessRandom
	// AccessWillNeed expects the data to be read soon.
	AccessWillNeed
)

var (
	// ErrClosed is returned when a closed mapping is accessed.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files that cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
