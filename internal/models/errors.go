package models

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned by indicators still in their warm-up
// period. Callers must treat it as "skip this cycle", never as a fault: it is
// not recorded against the circuit breaker.
var ErrInsufficientData = errors.New("insufficient data for indicator warm-up")

// TransientIOError wraps a network or timeout failure on an external call.
// It is the only error category (besides unclassified internal faults) that
// counts toward the circuit breaker threshold.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("transient I/O error in %s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientIOError.
func IsTransient(err error) bool {
	var t *TransientIOError
	return errors.As(err, &t)
}

// ValidationError is a fatal configuration problem. Trading never starts
// while one exists.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed: %v", e.Problems)
}

// SizingError means the position sizer could not produce a quantity within
// its safety bounds. The candidate trade is dropped; this is a correct risk
// decision, not a fault, and is never breaker-recorded.
type SizingError struct {
	Reason string
}

func (e *SizingError) Error() string {
	return "position sizing rejected: " + e.Reason
}

// FeeRejectedError means the fee filter determined the expected gain does
// not cover the round-trip cost. Like SizingError it is not a fault.
type FeeRejectedError struct {
	Reason    string
	Expected  float64
	RoundTrip float64
}

func (e *FeeRejectedError) Error() string {
	return fmt.Sprintf("trade rejected by fee filter: %s (expected gain %.8f, round-trip fees %.8f)",
		e.Reason, e.Expected, e.RoundTrip)
}

// CountsTowardBreaker reports whether an error should be recorded in the
// circuit breaker's sliding window. Warm-up, sizing and fee rejections are
// deliberate no-trade outcomes and are excluded.
func CountsTowardBreaker(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInsufficientData) {
		return false
	}
	var se *SizingError
	if errors.As(err, &se) {
		return false
	}
	var fe *FeeRejectedError
	if errors.As(err, &fe) {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	return true
}
