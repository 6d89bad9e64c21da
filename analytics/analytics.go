// Package analytics computes operator-facing summaries from detection
// records. Everything here is a pure function of its inputs: no state, no
// side effects.
package analytics

import (
	"math"
	"sort"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
)

// Summarize aggregates a record sequence into counts, confidence statistics
// and severity/class tallies. Severity is taken from the records as assigned
// by the detector, never recomputed here. When prior is non-nil the summary
// includes the trend delta against it; a nil prior or an empty record set
// leaves the corresponding fields nil.
func Summarize(records []models.DetectionRecord, prior *models.DetectionResult) models.Summary {
	summary := models.Summary{
		TotalCount:     len(records),
		SeverityCounts: map[models.Severity]int{},
		ClassCounts:    map[string]int{},
	}

	for _, rec := range records {
		summary.SeverityCounts[rec.Severity]++
		summary.ClassCounts[rec.Class]++
	}

	summary.Confidence = confidenceStats(records)

	if prior != nil {
		trend := &models.TrendDelta{
			CountDelta: len(records) - prior.Count(),
		}
		if cur, prev := summary.Confidence, confidenceStats(prior.Records); cur != nil && prev != nil {
			delta := cur.Mean - prev.Mean
			trend.MeanConfidenceDelta = &delta
		}
		summary.Trend = trend
	}

	return summary
}

// confidenceStats returns nil for an empty record set; zero counts must stay
// distinguishable from zero confidence.
func confidenceStats(records []models.DetectionRecord) *models.ConfidenceStats {
	if len(records) == 0 {
		return nil
	}

	confidences := make([]float64, len(records))
	for i, rec := range records {
		confidences[i] = rec.Confidence
	}
	sort.Float64s(confidences)

	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	mean := sum / float64(len(confidences))

	variance := 0.0
	for _, c := range confidences {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(confidences))

	return &models.ConfidenceStats{
		Mean:   mean,
		Median: median(confidences),
		Min:    confidences[0],
		Max:    confidences[len(confidences)-1],
		Std:    math.Sqrt(variance),
	}
}

// median expects a sorted slice; even lengths average the two middle values.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// HistoricalStats aggregates a chronological sequence of past scans.
func HistoricalStats(results []*models.DetectionResult) models.HistoricalStats {
	stats := models.HistoricalStats{TotalScans: len(results)}
	if len(results) == 0 {
		return stats
	}

	for _, res := range results {
		stats.TotalDetections += res.Count()
		if res.Count() > 0 {
			stats.ScansWithDefects++
		}
	}
	stats.AveragePerScan = float64(stats.TotalDetections) / float64(len(results))

	return stats
}

// DetectionRate is the average number of defects per scan, as a percentage.
func DetectionRate(totalScans, totalDefects int) float64 {
	if totalScans == 0 {
		return 0
	}
	return float64(totalDefects) / float64(totalScans) * 100
}
