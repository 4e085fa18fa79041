package detector

// Repetition duration bounds in seconds. These are fixed properties of the
// detector and do not change with the quality tier.
const (
	MinRepetitionDuration = 0.8
	MaxRepetitionDuration = 10.0
)

// ValidateRepetition checks that a candidate repetition spanning start to
// end has a plausible duration. It returns nil or a *ValidationError.
func ValidateRepetition(start, end float64) error {
	duration := end - start
	if duration < MinRepetitionDuration {
		return &ValidationError{Kind: TooFast, Duration: duration}
	}
	if duration > MaxRepetitionDuration {
		return &ValidationError{Kind: TooSlow, Duration: duration}
	}
	return nil
}
