// Package performance tracks per-frame processing cost and memory use and
// picks the quality tier the detector should run at.
package performance

// Quality is a performance/accuracy trade-off tier.
type Quality int

const (
	QualityHigh Quality = iota
	QualityMedium
	QualityLow
	QualityMinimal
)

// Qualities lists tiers from most to least expensive.
var Qualities = []Quality{QualityHigh, QualityMedium, QualityLow, QualityMinimal}

func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityMedium:
		return "medium"
	case QualityLow:
		return "low"
	case QualityMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// ParseQuality is the inverse of String.
func ParseQuality(s string) (Quality, bool) {
	for _, q := range Qualities {
		if q.String() == s {
			return q, true
		}
	}
	return QualityHigh, false
}
