package snowflake

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// skipIfFloatSafe skips tests that generate against the wall clock with the
// default epoch. The float-safe budget's timestamp field is too narrow to
// reach the present from 2024; those paths have their own tagged tests.
func skipIfFloatSafe(t *testing.T) {
	t.Helper()
	if FloatSafe {
		t.Skip("default epoch out of range under the float-safe budget")
	}
}

// TestNew tests generator creation and worker ID range checks
func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		workerID int64
		wantErr  bool
	}{
		{"Valid worker ID 0", 0, false},
		{"Valid worker ID 512", 512, false},
		{"Valid worker ID 1023", 1023, false},
		{"Invalid worker ID -1", -1, true},
		{"Invalid worker ID 1024", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := New(tt.workerID)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("New() error = %v, want errors.Is ErrInvalidConfig", err)
				}
				return
			}
			if gen == nil {
				t.Fatal("New() returned nil generator without error")
			}
			if gen.WorkerID() != tt.workerID {
				t.Errorf("WorkerID() = %v, want %v", gen.WorkerID(), tt.workerID)
			}
		})
	}
}

// TestGenerate tests basic ID generation and structure
func TestGenerate(t *testing.T) {
	skipIfFloatSafe(t)
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	id, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("Generate() returned non-positive ID: %d", id)
	}

	timestamp, workerID, sequence := ParseIDComponents(id)
	if workerID != 1 {
		t.Errorf("ParseIDComponents() workerID = %d, want 1", workerID)
	}
	if timestamp <= Epoch {
		t.Errorf("ParseIDComponents() timestamp = %d, should be > epoch %d", timestamp, Epoch)
	}
	if now := time.Now().UnixMilli(); timestamp > now {
		t.Errorf("ParseIDComponents() timestamp = %d, should be <= now %d", timestamp, now)
	}
	if sequence < 0 || sequence > MaxSequence {
		t.Errorf("ParseIDComponents() sequence = %d, want 0-%d", sequence, MaxSequence)
	}
}

// TestUniqueness tests that generated IDs are unique
func TestUniqueness(t *testing.T) {
	skipIfFloatSafe(t)
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	count := 100000
	ids := make(map[int64]bool, count)

	for i := 0; i < count; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v at iteration %d", err, i)
		}
		if ids[id] {
			t.Fatalf("Duplicate ID detected: %d at iteration %d", id, i)
		}
		ids[id] = true
	}
}

// TestOrdering tests that IDs from one generator are strictly increasing
func TestOrdering(t *testing.T) {
	skipIfFloatSafe(t)
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var prev int64
	for i := 0; i < 10000; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if id <= prev {
			t.Fatalf("IDs not monotonic: prev=%d, current=%d at iteration %d", prev, id, i)
		}
		prev = id
	}
}

// TestConcurrency tests that concurrent callers never receive duplicates
func TestConcurrency(t *testing.T) {
	skipIfFloatSafe(t)
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	goroutines := 100
	idsPerGoroutine := 1000
	totalIDs := goroutines * idsPerGoroutine

	ids := sync.Map{}
	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				id, err := gen.Generate()
				if err != nil {
					errCh <- err
					return
				}
				if _, exists := ids.LoadOrStore(id, true); exists {
					errCh <- errors.New("duplicate ID")
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("Concurrent generation error: %v", err)
	}

	count := 0
	ids.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != totalIDs {
		t.Errorf("Generated %d unique IDs, want %d", count, totalIDs)
	}
}

// fakeClock returns a clock function whose i-th call yields ms[min(i, len-1)],
// in absolute milliseconds.
func fakeClock(ms ...int64) func() int64 {
	i := 0
	return func() int64 {
		v := ms[i]
		if i < len(ms)-1 {
			i++
		}
		return v
	}
}

// TestSequenceBound tests that the sequence wraps exactly at maxSequence and
// generation resumes in the next millisecond
func TestSequenceBound(t *testing.T) {
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Hold the clock at one millisecond for exactly one sequence space worth
	// of calls, then advance. The wrap call sees the stuck value once more in
	// next(), so it must block in waitNextMillis until the advance.
	base := Epoch + 1000
	calls := 0
	stuckCalls := int(gen.maxSequence) + 2
	gen.nowMillis = func() int64 {
		calls++
		if calls <= stuckCalls {
			return base
		}
		return base + 1
	}

	var prev int64
	for i := int64(0); i <= gen.maxSequence; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v at sequence %d", err, i)
		}
		ts, _, seq := ParseIDComponents(id)
		if ts != base {
			t.Fatalf("timestamp = %d, want %d at sequence %d", ts, base, i)
		}
		if seq != i {
			t.Fatalf("sequence = %d, want %d", seq, i)
		}
		if id <= prev {
			t.Fatalf("IDs not monotonic at sequence %d", i)
		}
		prev = id
	}

	// Sequence space is spent; the next call must land in the next ms.
	id, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() after wrap error = %v", err)
	}
	ts, _, seq := ParseIDComponents(id)
	if ts != base+1 {
		t.Errorf("timestamp after wrap = %d, want %d", ts, base+1)
	}
	if seq != 0 {
		t.Errorf("sequence after wrap = %d, want 0", seq)
	}
	if id <= prev {
		t.Error("ID after wrap not greater than last ID of previous ms")
	}

	if m := gen.Metrics(); m.SequenceOverflow != 1 {
		t.Errorf("Metrics.SequenceOverflow = %d, want 1", m.SequenceOverflow)
	}
}

// TestBackwardsDrift tests that a backward clock step fails the call, leaves
// state untouched, and generation recovers once the clock catches up
func TestBackwardsDrift(t *testing.T) {
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	gen.nowMillis = fakeClock(Epoch+2000, Epoch+1500, Epoch+2001)

	first, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = gen.Generate()
	if err == nil {
		t.Fatal("Generate() succeeded with clock 500ms behind, want error")
	}
	if !errors.Is(err, ErrClockBackwards) {
		t.Errorf("error = %v, want errors.Is ErrClockBackwards", err)
	}
	var clockErr *ClockError
	if !errors.As(err, &clockErr) {
		t.Fatalf("error = %T, want *ClockError", err)
	}
	if clockErr.Kind != BackwardsDrift {
		t.Errorf("ClockError.Kind = %v, want BackwardsDrift", clockErr.Kind)
	}
	if clockErr.Drift != 500 {
		t.Errorf("ClockError.Drift = %d, want 500", clockErr.Drift)
	}
	if clockErr.DriftDuration() != 500*time.Millisecond {
		t.Errorf("DriftDuration() = %v, want 500ms", clockErr.DriftDuration())
	}

	// Failed call must not have advanced lastTimestamp or the sequence.
	if gen.lastTimestamp != 2000 {
		t.Errorf("lastTimestamp = %d after failed call, want 2000", gen.lastTimestamp)
	}
	if gen.sequence != 0 {
		t.Errorf("sequence = %d after failed call, want 0", gen.sequence)
	}

	second, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() after clock recovery error = %v", err)
	}
	if second <= first {
		t.Errorf("post-recovery ID %d not greater than pre-drift ID %d", second, first)
	}

	m := gen.Metrics()
	if m.BackwardsDrift != 1 {
		t.Errorf("Metrics.BackwardsDrift = %d, want 1", m.BackwardsDrift)
	}
	if m.Generated != 2 {
		t.Errorf("Metrics.Generated = %d, want 2", m.Generated)
	}
}

// TestClockBeforeEpoch tests that a clock reading earlier than the epoch
// fails the call instead of colliding with the "no IDs yet" sentinel and
// packing a negative ID
func TestClockBeforeEpoch(t *testing.T) {
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	gen.nowMillis = fakeClock(Epoch-1, Epoch+10)

	id, err := gen.Generate()
	if err == nil {
		t.Fatalf("Generate() with clock before epoch succeeded: id=%d, want error", id)
	}
	if !errors.Is(err, ErrClockBackwards) {
		t.Errorf("error = %v, want errors.Is ErrClockBackwards", err)
	}
	var clockErr *ClockError
	if !errors.As(err, &clockErr) {
		t.Fatalf("error = %T, want *ClockError", err)
	}
	if clockErr.Kind != BackwardsDrift {
		t.Errorf("ClockError.Kind = %v, want BackwardsDrift", clockErr.Kind)
	}
	if clockErr.Drift != 1 {
		t.Errorf("ClockError.Drift = %d, want 1", clockErr.Drift)
	}

	// Failed call must not have advanced the sentinel.
	if gen.lastTimestamp != -1 {
		t.Errorf("lastTimestamp = %d after failed call, want -1", gen.lastTimestamp)
	}

	first, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() after clock recovery error = %v", err)
	}
	if first <= 0 {
		t.Errorf("post-recovery ID = %d, want positive", first)
	}

	m := gen.Metrics()
	if m.BackwardsDrift != 1 {
		t.Errorf("Metrics.BackwardsDrift = %d, want 1", m.BackwardsDrift)
	}
}

// TestEpochExhausted tests that timestamp field overflow is a terminal error
func TestEpochExhausted(t *testing.T) {
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	gen.nowMillis = fakeClock(Epoch + gen.maxTimestamp + 1)

	_, err = gen.Generate()
	if err == nil {
		t.Fatal("Generate() succeeded past the timestamp field capacity, want error")
	}
	if !errors.Is(err, ErrEpochExhausted) {
		t.Errorf("error = %v, want errors.Is ErrEpochExhausted", err)
	}
	var clockErr *ClockError
	if !errors.As(err, &clockErr) {
		t.Fatalf("error = %T, want *ClockError", err)
	}
	if clockErr.Kind != EpochExhausted {
		t.Errorf("ClockError.Kind = %v, want EpochExhausted", clockErr.Kind)
	}

	// Every further call fails the same way.
	if _, err := gen.Generate(); !errors.Is(err, ErrEpochExhausted) {
		t.Errorf("second Generate() error = %v, want ErrEpochExhausted", err)
	}

	if m := gen.Metrics(); m.EpochExhausted != 2 {
		t.Errorf("Metrics.EpochExhausted = %d, want 2", m.EpochExhausted)
	}
}

// TestEpochExhaustedBeforeWait tests that a sequence wrap in the final
// millisecond fails instead of waiting for a millisecond that cannot be
// represented
func TestEpochExhaustedBeforeWait(t *testing.T) {
	gen, err := NewWithConfig(Config{
		WorkerID: 1,
		Layout:   BitLayout{TimestampBits: 4, WorkerBits: 2, SequenceBits: 2},
	})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	// 4 timestamp bits: the last representable millisecond is 15.
	// 2 sequence bits: 4 IDs per millisecond.
	gen.nowMillis = fakeClock(Epoch + 15)

	for i := 0; i < 4; i++ {
		if _, err := gen.Generate(); err != nil {
			t.Fatalf("Generate() error = %v at sequence %d", err, i)
		}
	}

	// The wrap would wait for millisecond 16, which overflows the field.
	_, err = gen.Generate()
	if !errors.Is(err, ErrEpochExhausted) {
		t.Fatalf("Generate() error = %v, want ErrEpochExhausted", err)
	}
	if m := gen.Metrics(); m.SequenceOverflow != 0 {
		t.Errorf("Metrics.SequenceOverflow = %d, want 0 (must not wait)", m.SequenceOverflow)
	}
}

// TestConfigValidation tests rejection of invalid configurations
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"Negative epoch", Config{WorkerID: 1, Epoch: -5}},
		{"Future epoch", Config{WorkerID: 1, Epoch: time.Now().UnixMilli() + int64(time.Hour/time.Millisecond)}},
		{"Worker over layout max", Config{WorkerID: 4, Layout: BitLayout{WorkerBits: 2, SequenceBits: 4}}},
		{"Zero worker bits", Config{WorkerID: 0, Layout: BitLayout{TimestampBits: 41, WorkerBits: 0, SequenceBits: 22}}},
		{"Zero sequence bits", Config{WorkerID: 0, Layout: BitLayout{TimestampBits: 41, WorkerBits: 22, SequenceBits: 0}}},
		{"Budget overflow", Config{WorkerID: 0, Layout: BitLayout{TimestampBits: 50, WorkerBits: 10, SequenceBits: 12}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithConfig(tt.cfg)
			if err == nil {
				t.Fatal("NewWithConfig() succeeded, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want errors.Is ErrInvalidConfig", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %T, want *ConfigError", err)
			}
		})
	}
}

// TestConfigDefaults tests that zero-valued optional fields resolve to the
// package defaults
func TestConfigDefaults(t *testing.T) {
	gen, err := NewWithConfig(Config{WorkerID: 7})
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	if gen.EpochMillis() != Epoch {
		t.Errorf("EpochMillis() = %d, want %d", gen.EpochMillis(), Epoch)
	}
	if got := gen.Layout(); got != LayoutDefault {
		t.Errorf("Layout() = %+v, want LayoutDefault", got)
	}
}

// TestMetrics tests counter recording and reset
func TestMetrics(t *testing.T) {
	skipIfFloatSafe(t)
	gen, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	count := 1000
	for i := 0; i < count; i++ {
		if _, err := gen.Generate(); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	}

	m := gen.Metrics()
	if m.Generated != int64(count) {
		t.Errorf("Metrics.Generated = %d, want %d", m.Generated, count)
	}
	if m.BackwardsDrift != 0 || m.EpochExhausted != 0 {
		t.Errorf("unexpected failure counters: %+v", m)
	}

	gen.ResetMetrics()
	if m := gen.Metrics(); m != (Metrics{}) {
		t.Errorf("after reset, Metrics() = %+v, want zero", m)
	}
}

// TestDefaultGenerator tests the lazily initialized package-level generator
func TestDefaultGenerator(t *testing.T) {
	skipIfFloatSafe(t)
	id1, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	id2, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if id2.Int64() <= id1 {
		t.Errorf("default generator not monotonic: %d then %d", id1, id2)
	}
	if _, worker, _ := ParseIDComponents(id1); worker != 0 {
		t.Errorf("default generator worker = %d, want 0", worker)
	}

	if MustGenerate() <= id2.Int64() {
		t.Error("MustGenerate() not monotonic")
	}
	_ = MustGenerateID()
}

// TestParseIDComponents tests component extraction under the default layout
func TestParseIDComponents(t *testing.T) {
	skipIfFloatSafe(t)
	gen, err := New(42)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	before := time.Now().UnixMilli()
	id, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	after := time.Now().UnixMilli()

	timestamp, workerID, sequence := ParseIDComponents(id)
	if workerID != 42 {
		t.Errorf("workerID = %d, want 42", workerID)
	}
	if timestamp < before || timestamp > after {
		t.Errorf("timestamp = %d, want within [%d, %d]", timestamp, before, after)
	}
	if sequence != 0 {
		t.Errorf("sequence = %d, want 0 for first ID in its millisecond", sequence)
	}

	if got := ExtractTimestamp(id).UnixMilli(); got != timestamp {
		t.Errorf("ExtractTimestamp() = %d, want %d", got, timestamp)
	}
}

// TestMultipleWorkers tests that distinct worker IDs never collide
func TestMultipleWorkers(t *testing.T) {
	skipIfFloatSafe(t)
	workers := 10
	idsPerWorker := 1000

	ids := sync.Map{}
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for w := 0; w < workers; w++ {
		gen, err := New(int64(w))
		if err != nil {
			t.Fatalf("New(%d) error = %v", w, err)
		}
		wg.Add(1)
		go func(gen *Generator, worker int64) {
			defer wg.Done()
			for i := 0; i < idsPerWorker; i++ {
				id, err := gen.Generate()
				if err != nil {
					errCh <- err
					return
				}
				if _, w2, _ := ParseIDComponents(id); w2 != worker {
					errCh <- errors.New("wrong worker in ID")
					return
				}
				if _, exists := ids.LoadOrStore(id, true); exists {
					errCh <- errors.New("cross-worker duplicate")
					return
				}
			}
		}(gen, int64(w))
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("multi-worker generation error: %v", err)
	}

	count := 0
	ids.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != workers*idsPerWorker {
		t.Errorf("Generated %d unique IDs, want %d", count, workers*idsPerWorker)
	}
}

// TestGeneratorWithLayouts tests generation and decomposition under each
// preset layout
func TestGeneratorWithLayouts(t *testing.T) {
	skipIfFloatSafe(t)
	tests := []struct {
		name   string
		layout BitLayout
	}{
		{"LayoutDefault", LayoutDefault},
		{"LayoutWide", LayoutWide},
		{"LayoutDense", LayoutDense},
		{"LayoutLongLife", LayoutLongLife},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, maxWorker, _, _ := tt.layout.Shifts()

			gen, err := NewWithConfig(Config{WorkerID: maxWorker, Layout: tt.layout})
			if err != nil {
				t.Fatalf("NewWithConfig() error = %v", err)
			}

			var prev int64
			for i := 0; i < 100; i++ {
				id, err := gen.Generate()
				if err != nil {
					t.Fatalf("Generate() error = %v", err)
				}
				if id <= prev {
					t.Fatalf("IDs not monotonic under %s", tt.name)
				}
				prev = id

				_, worker, _ := tt.layout.Decompose(id)
				if worker != maxWorker {
					t.Errorf("Decompose() worker = %d, want %d", worker, maxWorker)
				}
			}

			// Max worker plus one must be rejected.
			if _, err := NewWithConfig(Config{WorkerID: maxWorker + 1, Layout: tt.layout}); err == nil {
				t.Errorf("NewWithConfig() accepted worker %d over layout max", maxWorker+1)
			}
		})
	}
}

func BenchmarkGenerate(b *testing.B) {
	gen, err := New(1)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gen.Generate(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerateConcurrent(b *testing.B) {
	gen, err := New(1)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := gen.Generate(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkParseIDComponents(b *testing.B) {
	gen, _ := New(1)
	id, _ := gen.Generate()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseIDComponents(id)
	}
}
