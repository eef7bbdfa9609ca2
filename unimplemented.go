package splash

import (
	"context"

	"github.com/hupe1980/splash/dtype"
	"github.com/hupe1980/splash/grid"
)

// Entry describes a dataset of an iteration.
type Entry struct {
	Name string
	Type dtype.Type
}

func unimplemented(op string) error {
	return newError(op, ErrUnimplemented, "", nil)
}

// EntryIDs is reserved and fails with ErrUnimplemented.
func (dc *Collector) EntryIDs(ctx context.Context) ([]uint32, error) {
	return nil, unimplemented("entryIDs")
}

// EntriesForID is reserved and fails with ErrUnimplemented.
func (dc *Collector) EntriesForID(ctx context.Context, id uint32) ([]Entry, error) {
	return nil, unimplemented("entriesForID")
}

// Append is reserved and fails with ErrUnimplemented.
func (dc *Collector) Append(ctx context.Context, id uint32, t dtype.Type, count uint64, name string, data any) error {
	return unimplemented("append")
}

// AppendStrided is reserved and fails with ErrUnimplemented.
func (dc *Collector) AppendStrided(ctx context.Context, id uint32, t dtype.Type, count, offset, stride uint64, name string, data any) error {
	return unimplemented("append")
}

// Remove is reserved and fails with ErrUnimplemented.
func (dc *Collector) Remove(ctx context.Context, id uint32) error {
	return unimplemented("remove")
}

// RemoveEntry is reserved and fails with ErrUnimplemented.
func (dc *Collector) RemoveEntry(ctx context.Context, id uint32, name string) error {
	return unimplemented("remove")
}

// CreateReference is reserved and fails with ErrUnimplemented.
func (dc *Collector) CreateReference(ctx context.Context, srcID uint32, srcName string, t dtype.Type,
	dstID uint32, dstName string, count, offset, stride grid.Dimensions) error {
	return unimplemented("createReference")
}
