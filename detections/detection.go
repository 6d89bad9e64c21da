package detections

import (
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
)

// Detector turns images into detection results through a model handle. It is
// stateless apart from the severity policy and safe for concurrent use.
type Detector struct {
	policy SeverityPolicy
}

// NewDetector builds a detector with the given severity policy.
func NewDetector(policy SeverityPolicy) *Detector {
	return &Detector{policy: policy}
}

// Detect runs one inference pass and returns the filtered, normalized
// detections. Every returned record satisfies Confidence >= threshold and
// the records are ordered by descending confidence. On failure no partial
// result is returned: the error is either an *InvalidImageError or an
// *InferenceError.
//
// timings may be nil; when set, per-stage durations are recorded into it.
func (d *Detector) Detect(ctx context.Context, img image.Image, model Model, threshold float64, timings *models.ProcessingTimings) (*models.DetectionResult, error) {
	if img == nil {
		return nil, &InvalidImageError{Reason: "image is nil"}
	}

	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	if origWidth <= 0 || origHeight <= 0 {
		return nil, &InvalidImageError{Reason: "image has zero dimension"}
	}

	side := model.InputSize()

	resizeStart := time.Now()
	resized := imaging.Resize(img, side, side, imaging.Linear)
	if timings != nil {
		timings.Resize = time.Since(resizeStart)
	}

	prepStart := time.Now()
	input := getBuffer(3 * side * side)
	defer putBuffer(input)
	prepareInput(resized, input, side)
	if timings != nil {
		timings.Preprocess = time.Since(prepStart)
	}

	inferStart := time.Now()
	preds, err := model.Run(ctx, input)
	if timings != nil {
		timings.Inference = time.Since(inferStart)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &InferenceError{Cause: err}
	}

	postStart := time.Now()
	records := decodePredictions(preds, model.ClassNames(), side, model.Candidates(), origWidth, origHeight, threshold, d.policy)
	if timings != nil {
		timings.Postprocess = time.Since(postStart)
	}

	return &models.DetectionResult{
		Records:     records,
		ImageWidth:  origWidth,
		ImageHeight: origHeight,
		Threshold:   threshold,
		Timestamp:   time.Now(),
	}, nil
}
