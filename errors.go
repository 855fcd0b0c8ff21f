// Package snowflake - errors.go defines the error taxonomy of the generator.
//
// Construction failures surface as *ConfigError, clock failures as
// *ClockError. Both carry enough context to diagnose the problem without a
// debugger and unwrap to sentinel errors for errors.Is checks.

package snowflake

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Rich error types returned by the package unwrap to one of
// these, so callers can classify failures with errors.Is without depending
// on the concrete type.
var (
	// ErrInvalidConfig is returned when generator construction is given a
	// structurally invalid layout, an out-of-range worker ID, or an epoch in
	// the future. Never returned after successful construction.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClockBackwards is returned when the observed clock regresses below
	// the last recorded timestamp. The generator never waits the drift out or
	// reuses old timestamps; doing so could emit duplicate or misordered IDs.
	ErrClockBackwards = errors.New("clock moved backwards")

	// ErrEpochExhausted is returned once the timestamp field can no longer
	// represent the current time. Fatal for the generator: reconfigure with a
	// wider timestamp field or a later epoch.
	ErrEpochExhausted = errors.New("timestamp field exhausted")
)

// ClockKind discriminates the two clock failure modes.
type ClockKind int

const (
	// BackwardsDrift means the clock reported a time earlier than the last
	// issued timestamp (NTP step, VM migration, manual change).
	BackwardsDrift ClockKind = iota

	// EpochExhausted means the millisecond counter overflowed the layout's
	// timestamp field.
	EpochExhausted
)

// String returns a stable name for the failure mode.
func (k ClockKind) String() string {
	switch k {
	case BackwardsDrift:
		return "backwards_drift"
	case EpochExhausted:
		return "epoch_exhausted"
	default:
		return "unknown"
	}
}

// ClockError reports a clock-related generation failure.
//
// Timestamps are milliseconds relative to the generator's epoch. For
// BackwardsDrift, Drift holds the regression magnitude; state was left
// untouched and no ID was issued.
//
//	if clockErr, ok := snowflake.AsClockError(err); ok {
//	    log.Warn("id generation failed",
//	        zap.Stringer("kind", clockErr.Kind),
//	        zap.Int64("drift_ms", clockErr.Drift))
//	}
type ClockError struct {
	// Kind selects between backward drift and timestamp-field exhaustion.
	Kind ClockKind

	// CurrentTimestamp is the epoch-relative millisecond the clock reported.
	CurrentTimestamp int64

	// LastTimestamp is the epoch-relative millisecond of the last issued ID.
	LastTimestamp int64

	// Drift is LastTimestamp - CurrentTimestamp in milliseconds. Only set
	// for BackwardsDrift.
	Drift int64

	// WorkerID identifies the generator that failed.
	WorkerID int64
}

// Error implements the error interface.
func (e *ClockError) Error() string {
	switch e.Kind {
	case BackwardsDrift:
		return fmt.Sprintf("clock moved backwards: drift=%dms current=%d last=%d worker=%d",
			e.Drift, e.CurrentTimestamp, e.LastTimestamp, e.WorkerID)
	case EpochExhausted:
		return fmt.Sprintf("timestamp field exhausted: current=%d worker=%d", e.CurrentTimestamp, e.WorkerID)
	default:
		return fmt.Sprintf("clock error: kind=%d worker=%d", e.Kind, e.WorkerID)
	}
}

// Unwrap returns the sentinel matching Kind, for errors.Is.
func (e *ClockError) Unwrap() error {
	if e.Kind == EpochExhausted {
		return ErrEpochExhausted
	}
	return ErrClockBackwards
}

// DriftDuration returns the backward drift as a time.Duration.
func (e *ClockError) DriftDuration() time.Duration {
	return time.Duration(e.Drift) * time.Millisecond
}

// ConfigError reports which configuration field failed validation and why.
type ConfigError struct {
	// Field names the offending configuration field.
	Field string

	// Value is the rejected value, formatted for logging.
	Value string

	// Reason explains the failure in one clause.
	Reason string

	// Constraint states the valid range, e.g. "must be between 0 and 1023".
	Constraint string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s (%s) - %s",
		e.Field, e.Value, e.Reason, e.Constraint)
}

// Unwrap returns ErrInvalidConfig, for errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// IsClockError reports whether err is or wraps a *ClockError.
func IsClockError(err error) bool {
	var clockErr *ClockError
	return errors.As(err, &clockErr)
}

// AsClockError extracts the *ClockError from an error chain.
func AsClockError(err error) (*ClockError, bool) {
	var clockErr *ClockError
	if errors.As(err, &clockErr) {
		return clockErr, true
	}
	return nil, false
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// AsConfigError extracts the *ConfigError from an error chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

func newDriftError(current, last, workerID int64) *ClockError {
	return &ClockError{
		Kind:             BackwardsDrift,
		CurrentTimestamp: current,
		LastTimestamp:    last,
		Drift:            last - current,
		WorkerID:         workerID,
	}
}

func newExhaustedError(current, last, workerID int64) *ClockError {
	return &ClockError{
		Kind:             EpochExhausted,
		CurrentTimestamp: current,
		LastTimestamp:    last,
		WorkerID:         workerID,
	}
}

func newConfigError(field, value, reason, constraint string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Reason:     reason,
		Constraint: constraint,
	}
}
