// Package snowflake - layout.go defines how the bit budget of an ID is split
// across the timestamp, worker ID, and sequence fields.
//
// A layout is validated once at generator construction; the shifts and masks
// derived from it are pre-calculated so the hot path pays nothing for the
// flexibility.

package snowflake

import (
	"fmt"
	"time"
)

// BitLayout allocates the TotalBits budget of an ID across its three fields.
//
// The ID is packed as:
//
//	┌──────────────────────────┬───────────────┬───────────────┐
//	│ TimestampBits            │ WorkerBits    │ SequenceBits  │
//	│ ms since the epoch       │ worker ID     │ per-ms counter│
//	└──────────────────────────┴───────────────┴───────────────┘
//
// TimestampBits may be left zero, in which case the timestamp field takes
// whatever the budget leaves after WorkerBits and SequenceBits. That keeps
// the preset layouts valid in both the default (63-bit) and float-safe
// (52-bit) builds.
//
// Every field needs at least one bit and the sum must not exceed TotalBits.
// A layout is immutable once a generator has consumed it; IDs produced with
// different layouts are not comparable.
type BitLayout struct {
	// TimestampBits is the width of the millisecond counter. Zero means
	// "remainder of the budget".
	TimestampBits int

	// WorkerBits is the width of the worker ID field.
	WorkerBits int

	// SequenceBits is the width of the per-millisecond sequence counter.
	SequenceBits int
}

// Preset layouts. Each fixes the worker and sequence widths and lets the
// timestamp take the rest of the budget: 41 bits (~69 years) in the default
// build. The float-safe build leaves far less room (30 bits is under two
// weeks), so pair these presets with a recent custom epoch there.
var (
	// LayoutDefault is the classic Twitter allocation: 1,024 workers, 4,096
	// IDs per worker per millisecond.
	LayoutDefault = BitLayout{WorkerBits: 10, SequenceBits: 12}

	// LayoutWide trades throughput for scale: 65,536 workers, 256 IDs per
	// millisecond each.
	LayoutWide = BitLayout{WorkerBits: 16, SequenceBits: 8}

	// LayoutDense trades scale for throughput: 64 workers, 65,536 IDs per
	// millisecond each.
	LayoutDense = BitLayout{WorkerBits: 6, SequenceBits: 16}

	// LayoutLongLife shrinks the sequence to stretch the timestamp field:
	// 1,024 workers, 256 IDs per millisecond, 45 timestamp bits
	// (~1100 years) in the default build.
	LayoutLongLife = BitLayout{WorkerBits: 10, SequenceBits: 8}
)

// resolve returns the layout with TimestampBits filled in from the budget
// remainder. It does not validate.
func (l BitLayout) resolve() BitLayout {
	if l.TimestampBits == 0 {
		l.TimestampBits = TotalBits - l.WorkerBits - l.SequenceBits
	}
	return l
}

// Validate checks that every field is at least one bit wide and that the
// layout fits the active bit budget. A zero TimestampBits is resolved to the
// budget remainder first, so "worker and sequence leave no room for the
// timestamp" is reported as a timestamp-width failure.
func (l BitLayout) Validate() error {
	if l.WorkerBits < 1 {
		return newConfigError("WorkerBits", fmt.Sprintf("%d", l.WorkerBits),
			"worker ID field too narrow", "must be at least 1 bit")
	}
	if l.SequenceBits < 1 {
		return newConfigError("SequenceBits", fmt.Sprintf("%d", l.SequenceBits),
			"sequence field too narrow", "must be at least 1 bit")
	}
	r := l.resolve()
	if r.TimestampBits < 1 {
		return newConfigError("TimestampBits", fmt.Sprintf("%d", r.TimestampBits),
			"no room left for the timestamp field",
			fmt.Sprintf("WorkerBits+SequenceBits must leave at least 1 of %d budget bits", TotalBits))
	}
	if total := r.TimestampBits + r.WorkerBits + r.SequenceBits; total > TotalBits {
		return newConfigError("BitLayout", fmt.Sprintf("%d+%d+%d", r.TimestampBits, r.WorkerBits, r.SequenceBits),
			"layout exceeds the bit budget",
			fmt.Sprintf("total bits must not exceed %d, got %d", TotalBits, total))
	}
	return nil
}

// Shifts returns the derived packing constants for this layout.
//
// The returned values follow the packing rule
//
//	id = timestamp<<timestampShift | worker<<workerShift | sequence
//
// and are computed once at generator construction.
func (l BitLayout) Shifts() (timestampShift, workerShift int, maxWorker, maxSequence, maxTimestamp int64) {
	r := l.resolve()
	workerShift = r.SequenceBits
	timestampShift = r.SequenceBits + r.WorkerBits
	maxWorker = int64(1)<<r.WorkerBits - 1
	maxSequence = int64(1)<<r.SequenceBits - 1
	maxTimestamp = int64(1)<<r.TimestampBits - 1
	return
}

// ValidateWorkerID checks a worker ID against this layout's capacity.
func (l BitLayout) ValidateWorkerID(workerID int64) error {
	_, _, maxWorker, _, _ := l.Shifts()
	if workerID < 0 || workerID > maxWorker {
		return newConfigError("WorkerID", fmt.Sprintf("%d", workerID),
			"out of range for layout",
			fmt.Sprintf("must be between 0 and %d (%d bits)", maxWorker, l.resolve().WorkerBits))
	}
	return nil
}

// Decompose splits an ID into its raw fields. The timestamp is returned
// relative to the epoch the generator was configured with; add the epoch back
// to obtain absolute Unix milliseconds. Pure function of its inputs; the
// round trip with the packing rule is exact.
func (l BitLayout) Decompose(id int64) (timestamp, workerID, sequence int64) {
	timestampShift, workerShift, maxWorker, maxSequence, _ := l.Shifts()
	timestamp = id >> timestampShift
	workerID = (id >> workerShift) & maxWorker
	sequence = id & maxSequence
	return
}

// Capacity summarizes what this layout can address, for capacity planning.
type Capacity struct {
	// MaxWorkers is the number of distinct worker IDs.
	MaxWorkers int64

	// IDsPerMillisecond is the sequence capacity of one worker in one
	// millisecond (maxSequence + 1).
	IDsPerMillisecond int64

	// Lifespan is how long after the epoch the timestamp field lasts.
	Lifespan time.Duration
}

// Capacity computes the addressing limits of this layout.
func (l BitLayout) Capacity() Capacity {
	_, _, maxWorker, maxSequence, maxTimestamp := l.Shifts()
	return Capacity{
		MaxWorkers:        maxWorker + 1,
		IDsPerMillisecond: maxSequence + 1,
		Lifespan:          time.Duration(maxTimestamp) * time.Millisecond,
	}
}

// String returns a human-readable summary.
func (c Capacity) String() string {
	years := int(c.Lifespan.Hours() / 24 / 365)
	return fmt.Sprintf("workers=%d ids/ms=%d lifespan=%dy", c.MaxWorkers, c.IDsPerMillisecond, years)
}
