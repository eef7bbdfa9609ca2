// Package compress frames slab payloads in self-describing blocks.
//
// Block layout (little endian):
//
//	[codec uint8][raw size uint64][stored size uint64][stored bytes...]
//
// A block always records the codec that produced it, so readers never need
// to know whether compression was enabled when the slab was written. Data
// that does not shrink by at least ten percent is stored raw.
package compress
