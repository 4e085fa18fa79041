package detector

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Config violates its invariants.
var ErrInvalidConfig = errors.New("detector: invalid configuration")

// ValidationKind says why a repetition failed temporal validation.
type ValidationKind int

const (
	TooFast ValidationKind = iota
	TooSlow
)

func (k ValidationKind) String() string {
	if k == TooFast {
		return "too fast"
	}
	return "too slow"
}

// ValidationError reports a motion cycle outside the plausible duration
// range. It is surfaced as a RepetitionRejected result, never as a fault.
type ValidationError struct {
	Kind     ValidationKind
	Duration float64 // seconds
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%.2fs)", e.Kind, e.Duration)
}
