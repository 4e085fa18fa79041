package sequence

import "errors"

var (
	// ErrNoExamples is returned when a pattern is requested before any
	// example was recorded.
	ErrNoExamples = errors.New("sequence: no examples recorded")

	// ErrShortExample is returned for examples with fewer than two frames
	// or no elapsed time.
	ErrShortExample = errors.New("sequence: example too short")

	// ErrInvalidPattern is returned when a pattern has no template or a
	// non-positive expected duration.
	ErrInvalidPattern = errors.New("sequence: invalid pattern")
)
