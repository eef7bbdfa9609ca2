// Package mmap maps files read-only into memory.
//
// LocalStore uses it to serve slab and attribute blobs without copying them
// through kernel buffers:
//
//	m, err := mmap.Open(path)
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// On Unix the mapping is created with mmap(2) and hints go to madvise(2).
// On Windows CreateFileMapping/MapViewOfFile is used and hints are ignored.
//
// Close is idempotent. Callers must not touch Bytes() after Close returns.
package mmap
