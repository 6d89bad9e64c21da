package detections

import "github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"

// SeverityPolicy maps a confidence score to a triage level. Thresholds are
// inclusive lower bounds; tune them via config rather than editing code.
type SeverityPolicy struct {
	High   float64
	Medium float64
}

// DefaultSeverityPolicy returns the standard triage thresholds.
func DefaultSeverityPolicy() SeverityPolicy {
	return SeverityPolicy{High: 0.75, Medium: 0.5}
}

// Classify returns the severity bucket for a confidence score.
func (p SeverityPolicy) Classify(confidence float64) models.Severity {
	switch {
	case confidence >= p.High:
		return models.SeverityHigh
	case confidence >= p.Medium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
