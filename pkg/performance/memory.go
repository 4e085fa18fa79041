package performance

// DefaultMemoryBudget is the detector's buffer budget in bytes.
const DefaultMemoryBudget int64 = 50_000_000

// reducePercent is the share of the budget that triggers a reduction.
const reducePercent = 80

// MemoryManager decides when buffered state should be shed. The budget is
// passed in rather than shared so detector instances stay independent.
type MemoryManager struct {
	budget     int64
	reductions int
}

// NewMemoryManager creates a manager for budget bytes. A non-positive
// budget falls back to DefaultMemoryBudget.
func NewMemoryManager(budget int64) *MemoryManager {
	if budget <= 0 {
		budget = DefaultMemoryBudget
	}
	return &MemoryManager{budget: budget}
}

// Budget returns the configured budget in bytes.
func (m *MemoryManager) Budget() int64 {
	return m.budget
}

// ShouldReduce reports whether usage exceeds 80% of the budget.
func (m *MemoryManager) ShouldReduce(usage int64) bool {
	return usage > m.budget*reducePercent/100
}

// RecordReduction counts a footprint reduction performed by the caller.
func (m *MemoryManager) RecordReduction() {
	m.reductions++
}

// Reductions returns how many reductions have been recorded.
func (m *MemoryManager) Reductions() int {
	return m.reductions
}
