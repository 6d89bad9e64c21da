package detections

import "context"

// Model is the read-only handle the detector runs inference through. The
// registry owns construction and caching; implementations must be safe for
// concurrent Run calls.
type Model interface {
	// Run executes one inference pass. Input is a CHW float32 buffer of
	// size 3*InputSize*InputSize; the returned slice is the raw prediction
	// tensor laid out as [(4+len(ClassNames)) * Candidates].
	Run(ctx context.Context, input []float32) ([]float32, error)

	// ClassNames maps class ids (slice index) to human-readable labels.
	ClassNames() []string

	// InputSize is the square side length the model expects.
	InputSize() int

	// Candidates is the number of raw candidate detections per pass.
	Candidates() int
}

// CandidateCount returns the number of YOLOv8 anchor-free candidates for a
// square input: one per cell at strides 8, 16 and 32.
func CandidateCount(inputSize int) int {
	s8 := inputSize / 8
	s16 := inputSize / 16
	s32 := inputSize / 32
	return s8*s8 + s16*s16 + s32*s32
}
