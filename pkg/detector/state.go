package detector

import "github.com/teslashibe/go-repcount/pkg/features"

// state is the repetition state machine's current variant. The set is
// closed; transitions switch over it exhaustively.
type state interface {
	name() string
}

// monitoring waits for motion.
type monitoring struct{}

// potentialStart counts consecutive moving frames before committing.
type potentialStart struct {
	frames int
}

// inProgress tracks a committed repetition.
type inProgress struct {
	phase features.Phase
}

// potentialEnd holds the candidate end time for one frame so a brief dip
// in motion can be undone.
type potentialEnd struct {
	endTime    float64
	confidence float32
}

// cooldown suppresses detection until the given time.
type cooldown struct {
	until float64
}

func (monitoring) name() string     { return "monitoring" }
func (potentialStart) name() string { return "potential_start" }
func (inProgress) name() string     { return "in_progress" }
func (potentialEnd) name() string   { return "potential_end" }
func (cooldown) name() string       { return "cooldown" }
