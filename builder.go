// Package snowflake - builder.go provides an incremental way to assemble a
// generator configuration. Each setter performs the cheap range checks it
// can on its own and records the first violation; Build runs the full
// cross-field validation once at the end.

package snowflake

import "fmt"

// Builder assembles a Config option by option.
//
//	gen, err := snowflake.NewBuilder().
//	    WorkerID(42).
//	    WorkerIDBits(12).
//	    SequenceBits(10).
//	    Build()
//
// Unset options keep their defaults: LayoutDefault widths and the package
// Epoch. The builder is not safe for concurrent use; build once, share the
// Generator.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder returns a Builder starting from the defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig(0)}
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// WorkerID sets the worker identity. Range is checked against the final
// layout at Build time; only obvious negatives are rejected here.
func (b *Builder) WorkerID(id int64) *Builder {
	if id < 0 {
		b.setErr(newConfigError("WorkerID", fmt.Sprintf("%d", id),
			"negative", "must be >= 0"))
		return b
	}
	b.cfg.WorkerID = id
	return b
}

// WorkerIDBits sets the worker ID field width.
func (b *Builder) WorkerIDBits(n int) *Builder {
	if n < 1 || n > TotalBits-2 {
		b.setErr(newConfigError("WorkerIDBits", fmt.Sprintf("%d", n),
			"out of range", fmt.Sprintf("must be between 1 and %d", TotalBits-2)))
		return b
	}
	b.cfg.Layout.WorkerBits = n
	b.cfg.Layout.TimestampBits = 0 // re-derive from the budget
	return b
}

// SequenceBits sets the sequence field width.
func (b *Builder) SequenceBits(n int) *Builder {
	if n < 1 || n > TotalBits-2 {
		b.setErr(newConfigError("SequenceBits", fmt.Sprintf("%d", n),
			"out of range", fmt.Sprintf("must be between 1 and %d", TotalBits-2)))
		return b
	}
	b.cfg.Layout.SequenceBits = n
	b.cfg.Layout.TimestampBits = 0
	return b
}

// Epoch sets the custom epoch in milliseconds since the Unix epoch. Whether
// it lies in the future is decided at Build time.
func (b *Builder) Epoch(ms int64) *Builder {
	if ms < 0 {
		b.setErr(newConfigError("Epoch", fmt.Sprintf("%d", ms),
			"negative", "epoch is milliseconds since the Unix epoch"))
		return b
	}
	b.cfg.Epoch = ms
	return b
}

// Layout replaces the whole bit allocation at once, overriding any widths
// set individually.
func (b *Builder) Layout(l BitLayout) *Builder {
	b.cfg.Layout = l
	return b
}

// Build validates the assembled configuration and returns the Generator.
// The first setter violation, if any, is returned before full validation
// runs.
func (b *Builder) Build() (*Generator, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewWithConfig(b.cfg)
}
