package models

import "time"

// Severity is the operator triage level derived from detection confidence.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// ScanStatus summarizes a whole scan for alerting.
type ScanStatus string

const (
	StatusCritical ScanStatus = "Critical"
	StatusSafe     ScanStatus = "Safe"
)

// BoundingBox is an axis-aligned box in source image pixel coordinates.
// Invariant: X1 < X2 and Y1 < Y2, both corners inside the image bounds.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// DetectionRecord is one detected object. Immutable once created by the
// detector.
type DetectionRecord struct {
	Class      string      `json:"class"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
	Severity   Severity    `json:"severity"`
}

// DetectionResult is the outcome of one inference invocation. Every record
// satisfies Confidence >= Threshold, and records are ordered by descending
// confidence (ties keep the model's candidate order).
type DetectionResult struct {
	Records     []DetectionRecord `json:"records"`
	ImageWidth  int               `json:"image_width"`
	ImageHeight int               `json:"image_height"`
	Threshold   float64           `json:"threshold"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Count returns the number of detections in the result.
func (r *DetectionResult) Count() int { return len(r.Records) }

// Status reports Critical when the scan found at least one defect.
func (r *DetectionResult) Status() ScanStatus {
	if len(r.Records) > 0 {
		return StatusCritical
	}
	return StatusSafe
}

// ConfidenceStats holds the confidence distribution of a record set. It is
// only present when at least one record exists, so callers can tell "no
// detections" apart from "detections with zero confidence".
type ConfidenceStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// TrendDelta is the change in aggregate metrics versus the previous scan in
// the session. MeanConfidenceDelta is nil when either scan had no
// detections.
type TrendDelta struct {
	CountDelta          int      `json:"count_delta"`
	MeanConfidenceDelta *float64 `json:"mean_confidence_delta,omitempty"`
}

// Summary is the analytics snapshot computed over a record sequence. It is a
// pure function of its inputs and is never persisted. Nil Confidence and
// Trend fields are the defined "no data" states.
type Summary struct {
	TotalCount     int              `json:"total_count"`
	Confidence     *ConfidenceStats `json:"confidence,omitempty"`
	SeverityCounts map[Severity]int `json:"severity_counts"`
	ClassCounts    map[string]int   `json:"class_counts"`
	Trend          *TrendDelta      `json:"trend,omitempty"`
}

// HistoricalStats aggregates a session's past scans.
type HistoricalStats struct {
	TotalDetections  int     `json:"total_detections"`
	AveragePerScan   float64 `json:"average_per_scan"`
	ScansWithDefects int     `json:"scans_with_defects"`
	TotalScans       int     `json:"total_scans"`
}

// ProcessingTimings captures per-stage durations of one detect request,
// logged when debug mode is enabled.
type ProcessingTimings struct {
	RequestID   string
	ImageDecode time.Duration
	Resize      time.Duration
	Preprocess  time.Duration
	Inference   time.Duration
	Postprocess time.Duration
	Annotate    time.Duration
	Total       time.Duration
}
