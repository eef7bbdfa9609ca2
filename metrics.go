package splash

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordOpen is called after each Open.
	RecordOpen(access AccessType, err error)

	// RecordWrite is called after each dataset write. elements is the
	// number of elements of the local selection.
	RecordWrite(elements uint64, duration time.Duration, err error)

	// RecordRead is called after each dataset read.
	RecordRead(duration time.Duration, err error)

	// RecordAttribute is called after each attribute read or write.
	RecordAttribute(write bool, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(AccessType, error)             {}
func (NoopMetricsCollector) RecordWrite(uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(time.Duration, error)          {}
func (NoopMetricsCollector) RecordAttribute(bool, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteElements   atomic.Int64
	WriteTotalNanos atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadTotalNanos  atomic.Int64
	AttrReads       atomic.Int64
	AttrWrites      atomic.Int64
	AttrErrors      atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ AccessType, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(elements uint64, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WriteElements.Add(int64(elements))
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordAttribute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAttribute(write bool, err error) {
	if write {
		b.AttrWrites.Add(1)
	} else {
		b.AttrReads.Add(1)
	}
	if err != nil {
		b.AttrErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:     b.OpenCount.Load(),
		OpenErrors:    b.OpenErrors.Load(),
		WriteCount:    b.WriteCount.Load(),
		WriteErrors:   b.WriteErrors.Load(),
		WriteElements: b.WriteElements.Load(),
		WriteAvgNanos: avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		ReadCount:     b.ReadCount.Load(),
		ReadErrors:    b.ReadErrors.Load(),
		ReadAvgNanos:  avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		AttrReads:     b.AttrReads.Load(),
		AttrWrites:    b.AttrWrites.Load(),
		AttrErrors:    b.AttrErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount     int64
	OpenErrors    int64
	WriteCount    int64
	WriteErrors   int64
	WriteElements int64
	WriteAvgNanos int64
	ReadCount     int64
	ReadErrors    int64
	ReadAvgNanos  int64
	AttrReads     int64
	AttrWrites    int64
	AttrErrors    int64
}
