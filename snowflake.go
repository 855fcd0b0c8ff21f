// Package snowflake generates 64-bit, time-ordered, collision-resistant IDs
// for distributed workers without coordination.
//
// # Overview
//
// Each ID packs a millisecond timestamp relative to a custom epoch, a worker
// ID, and a per-millisecond sequence counter into a single integer:
//
//	┌─────────────────────────────────────────────┬──────────────┬──────────────┐
//	│       41 bits: Timestamp (milliseconds)     │  10 bits:    │  12 bits:    │
//	│        ~69 years from epoch (2024)          │  Worker ID   │  Sequence    │
//	│                                             │  (0-1023)    │  (0-4095)    │
//	└─────────────────────────────────────────────┴──────────────┴──────────────┘
//
// IDs from one generator are strictly increasing under a monotonic clock, and
// IDs from generators with distinct worker IDs never collide. The bit
// allocation is configurable via BitLayout, and the total budget can be
// capped at 52 bits with the "floatsafe" build tag so IDs survive a trip
// through an IEEE 754 double.
//
// # Failure model
//
// All failures are returned to the caller; the generator never logs and
// never silently recovers:
//
//   - construction rejects invalid layouts, out-of-range worker IDs, and
//     epochs in the future (*ConfigError, errors.Is ErrInvalidConfig)
//   - a backward clock step fails the call with the drift magnitude
//     (*ClockError, errors.Is ErrClockBackwards); retrying is the caller's
//     decision
//   - overflowing the timestamp field is fatal for the generator
//     (*ClockError, errors.Is ErrEpochExhausted)
//
// The one internally handled condition is per-millisecond sequence
// exhaustion: the call blocks (at most ~1ms) until the clock ticks, because
// that resolves deterministically under load.
//
// # Usage
//
//	gen, err := snowflake.New(workerID)
//	if err != nil {
//	    return err
//	}
//	id, err := gen.GenerateID()
package snowflake

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// Epoch is the default custom epoch (2024-01-01 00:00:00 UTC) in
	// milliseconds since the Unix epoch. A recent epoch maximizes the
	// lifespan of the timestamp field.
	Epoch int64 = 1704067200000

	// WorkerIDBits is the default worker ID field width.
	WorkerIDBits = 10

	// SequenceBits is the default sequence field width.
	SequenceBits = 12

	// MaxWorkerID is the largest worker ID under the default layout (1023).
	MaxWorkerID = -1 ^ (-1 << WorkerIDBits)

	// MaxSequence is the largest sequence value under the default layout
	// (4095), i.e. 4096 IDs per worker per millisecond.
	MaxSequence = -1 ^ (-1 << SequenceBits)

	// TimestampShift positions the timestamp under the default layout.
	TimestampShift = WorkerIDBits + SequenceBits

	// WorkerIDShift positions the worker ID under the default layout.
	WorkerIDShift = SequenceBits
)

// Config holds the resolved options for a Generator. The zero value of every
// optional field means "use the default"; only WorkerID is mandatory input.
type Config struct {
	// WorkerID uniquely identifies this generator instance. Run exactly one
	// generator per worker identity per process, or IDs will collide.
	WorkerID int64

	// Layout is the bit allocation. Zero value defaults to LayoutDefault.
	Layout BitLayout

	// Epoch is the custom epoch in milliseconds since the Unix epoch. Zero
	// defaults to the package Epoch. Must not lie in the future.
	Epoch int64
}

// DefaultConfig returns a Config with the default layout and epoch.
func DefaultConfig(workerID int64) Config {
	return Config{
		WorkerID: workerID,
		Layout:   LayoutDefault,
		Epoch:    Epoch,
	}
}

// Validate checks the configuration, filling in defaults for zero-valued
// optional fields first. Returns a *ConfigError describing the first
// violation found.
func (c *Config) Validate() error {
	if c.Layout == (BitLayout{}) {
		c.Layout = LayoutDefault
	}
	if c.Epoch == 0 {
		c.Epoch = Epoch
	}

	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Layout.ValidateWorkerID(c.WorkerID); err != nil {
		return err
	}
	if c.Epoch < 0 {
		return newConfigError("Epoch", fmt.Sprintf("%d", c.Epoch),
			"must be non-negative", "epoch is milliseconds since the Unix epoch")
	}
	if now := time.Now().UnixMilli(); c.Epoch > now {
		return newConfigError("Epoch", fmt.Sprintf("%d", c.Epoch),
			"lies in the future", fmt.Sprintf("must be <= current time (%d)", now))
	}
	return nil
}

// Metrics is a snapshot of a Generator's counters. All counters increase
// monotonically until ResetMetrics.
type Metrics struct {
	Generated        int64 // IDs successfully issued
	BackwardsDrift   int64 // generate calls failed on a backward clock step
	EpochExhausted   int64 // generate calls failed on timestamp overflow
	SequenceOverflow int64 // waits for the next millisecond after sequence wrap
	WaitTimeUs       int64 // total microseconds spent in those waits
}

// Generator issues snowflake IDs for a single worker identity.
//
// A Generator is safe for concurrent use: the read-modify-write over
// (lastTimestamp, sequence) happens under one mutex section per call, so two
// concurrent calls can never observe the same pair. The worker ID and layout
// are fixed for the generator's lifetime, and the internal state is only
// reachable through Generate and friends.
type Generator struct {
	mu            sync.Mutex
	nowMillis     func() int64 // clock source, ms since Unix epoch
	epoch         int64
	workerID      int64
	sequence      int64
	lastTimestamp int64 // epoch-relative ms of the last issued ID, -1 until then

	// Derived from the layout at construction.
	layout         BitLayout
	timestampShift int
	workerShift    int
	maxSequence    int64
	maxTimestamp   int64

	// Counters live apart from the mutex-guarded fields so lock-free reads
	// don't contend with the hot path.
	generated        atomic.Int64
	backwardsDrift   atomic.Int64
	epochExhausted   atomic.Int64
	sequenceOverflow atomic.Int64
	waitTimeUs       atomic.Int64
}

// New creates a Generator with the default layout and epoch.
//
// The worker ID must be unique among all generators sharing the layout
// (0-1023 by default).
func New(workerID int64) (*Generator, error) {
	return NewWithConfig(DefaultConfig(workerID))
}

// NewWithConfig creates a Generator from an explicit configuration.
// Validation happens here and never again: a constructed Generator can only
// fail on clock conditions.
func NewWithConfig(cfg Config) (*Generator, error) {
	if err := (&cfg).Validate(); err != nil {
		return nil, err
	}

	timestampShift, workerShift, _, maxSequence, maxTimestamp := cfg.Layout.Shifts()

	return &Generator{
		nowMillis:      func() int64 { return time.Now().UnixMilli() },
		epoch:          cfg.Epoch,
		workerID:       cfg.WorkerID,
		lastTimestamp:  -1,
		layout:         cfg.Layout,
		timestampShift: timestampShift,
		workerShift:    workerShift,
		maxSequence:    maxSequence,
		maxTimestamp:   maxTimestamp,
	}, nil
}

// Generate issues the next ID as a raw int64.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next()
}

// GenerateID issues the next ID as the ID type, which carries the encoding
// and inspection methods.
func (g *Generator) GenerateID() (ID, error) {
	id, err := g.Generate()
	return ID(id), err
}

// MustGenerate is Generate panicking on error. Use only where a generation
// failure is unrecoverable anyway.
func (g *Generator) MustGenerate() int64 {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// MustGenerateID is GenerateID panicking on error.
func (g *Generator) MustGenerateID() ID {
	id, err := g.GenerateID()
	if err != nil {
		panic(err)
	}
	return id
}

// next implements one generation step. Callers must hold g.mu.
//
// The step order matters: timestamp-field exhaustion is checked before
// anything else because waiting cannot resolve it, backward drift is checked
// before the sequence is touched so a failed call leaves the state exactly
// as it found it.
func (g *Generator) next() (int64, error) {
	now := g.nowMillis() - g.epoch

	if now < 0 {
		// Clock sits before the epoch. A reading of exactly epoch-1ms would
		// otherwise collide with the -1 "none yet" sentinel and pack the
		// sign bit into the ID.
		g.backwardsDrift.Add(1)
		last := g.lastTimestamp
		if last < 0 {
			last = 0
		}
		return 0, newDriftError(now, last, g.workerID)
	}

	if now > g.maxTimestamp {
		g.epochExhausted.Add(1)
		return 0, newExhaustedError(now, g.lastTimestamp, g.workerID)
	}

	switch {
	case now < g.lastTimestamp:
		g.backwardsDrift.Add(1)
		return 0, newDriftError(now, g.lastTimestamp, g.workerID)

	case now == g.lastTimestamp:
		g.sequence = (g.sequence + 1) & g.maxSequence
		if g.sequence == 0 {
			// This millisecond's ID space is spent. The wait targets
			// lastTimestamp+1, so bail out first if that already overflows
			// the timestamp field.
			if g.lastTimestamp >= g.maxTimestamp {
				g.epochExhausted.Add(1)
				return 0, newExhaustedError(now, g.lastTimestamp, g.workerID)
			}
			g.sequenceOverflow.Add(1)
			now = g.waitNextMillis()
			if now > g.maxTimestamp {
				g.epochExhausted.Add(1)
				return 0, newExhaustedError(now, g.lastTimestamp, g.workerID)
			}
		}

	default: // now > g.lastTimestamp
		g.sequence = 0
	}

	g.lastTimestamp = now

	id := now<<g.timestampShift | g.workerID<<g.workerShift | g.sequence
	g.generated.Add(1)
	return id, nil
}

// waitNextMillis blocks until the clock passes lastTimestamp and returns the
// new epoch-relative millisecond. Sleeps through most of the wait, then
// spins with Gosched for the final stretch; sleep granularity alone is too
// coarse for sub-millisecond precision. Bounded by the clock itself: real
// time advances, so the loop terminates within ~1ms.
func (g *Generator) waitNextMillis() int64 {
	start := time.Now()
	target := g.lastTimestamp + 1

	if remain := target - (g.nowMillis() - g.epoch); remain > 0 {
		if d := time.Duration(remain)*time.Millisecond - 50*time.Microsecond; d > 100*time.Microsecond {
			time.Sleep(d)
		}
	}

	for {
		now := g.nowMillis() - g.epoch
		if now >= target {
			g.waitTimeUs.Add(time.Since(start).Microseconds())
			return now
		}
		runtime.Gosched()
	}
}

// WorkerID returns the worker ID, fixed at construction.
func (g *Generator) WorkerID() int64 {
	return g.workerID
}

// Layout returns the bit layout this generator packs IDs with.
func (g *Generator) Layout() BitLayout {
	return g.layout
}

// EpochMillis returns the custom epoch in milliseconds since the Unix epoch.
func (g *Generator) EpochMillis() int64 {
	return g.epoch
}

// Metrics returns a consistent snapshot of the generator's counters.
func (g *Generator) Metrics() Metrics {
	return Metrics{
		Generated:        g.generated.Load(),
		BackwardsDrift:   g.backwardsDrift.Load(),
		EpochExhausted:   g.epochExhausted.Load(),
		SequenceOverflow: g.sequenceOverflow.Load(),
		WaitTimeUs:       g.waitTimeUs.Load(),
	}
}

// ResetMetrics zeroes all counters. Meant for tests; production metrics
// should stay monotonic for rate calculation.
func (g *Generator) ResetMetrics() {
	g.generated.Store(0)
	g.backwardsDrift.Store(0)
	g.epochExhausted.Store(0)
	g.sequenceOverflow.Store(0)
	g.waitTimeUs.Store(0)
}

// ParseIDComponents extracts timestamp, worker ID, and sequence from an ID
// produced under the default layout and epoch. The timestamp is absolute
// milliseconds since the Unix epoch. For other layouts use
// BitLayout.Decompose.
func ParseIDComponents(id int64) (timestamp, workerID, sequence int64) {
	timestamp = (id >> TimestampShift) + Epoch
	workerID = (id >> WorkerIDShift) & MaxWorkerID
	sequence = id & MaxSequence
	return
}

// ExtractTimestamp returns the creation time of an ID produced under the
// default layout and epoch.
func ExtractTimestamp(id int64) time.Time {
	return time.UnixMilli((id >> TimestampShift) + Epoch)
}

// Default generator (worker ID 0), initialized lazily so importing the
// package cannot panic and the error is observable on first use.
var (
	defaultGenerator     *Generator
	defaultGeneratorOnce sync.Once
	defaultGeneratorErr  error
)

func initDefaultGenerator() {
	defaultGenerator, defaultGeneratorErr = New(0)
}

// Generate issues an ID from the package default generator (worker ID 0).
// Suitable for single-node deployments; distributed systems should create
// their own Generator with a unique worker ID.
func Generate() (int64, error) {
	defaultGeneratorOnce.Do(initDefaultGenerator)
	if defaultGeneratorErr != nil {
		return 0, defaultGeneratorErr
	}
	return defaultGenerator.Generate()
}

// GenerateID issues an ID from the package default generator.
func GenerateID() (ID, error) {
	defaultGeneratorOnce.Do(initDefaultGenerator)
	if defaultGeneratorErr != nil {
		return 0, defaultGeneratorErr
	}
	return defaultGenerator.GenerateID()
}

// MustGenerate is Generate on the default generator, panicking on error.
func MustGenerate() int64 {
	id, err := Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// MustGenerateID is GenerateID on the default generator, panicking on error.
func MustGenerateID() ID {
	id, err := GenerateID()
	if err != nil {
		panic(err)
	}
	return id
}
