package detections

import (
	"fmt"
	"sort"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
)

// decodePredictions turns a raw YOLOv8 output tensor into detection records.
// The tensor is channel-major: channels 0-3 hold cx,cy,w,h in input-pixel
// units, channels 4..4+nc-1 hold per-class scores. A candidate's confidence
// is its best class score; candidates below the threshold are dropped.
//
// Candidates are walked in tensor order so that the stable sort below breaks
// confidence ties by original detector order.
func decodePredictions(preds []float32, names []string, inputSize, numCandidates, origWidth, origHeight int, threshold float64, policy SeverityPolicy) []models.DetectionRecord {
	numClasses := len(names)
	records := make([]models.DetectionRecord, 0, 32)

	for i := 0; i < numCandidates; i++ {
		classID := 0
		best := preds[4*numCandidates+i]
		for c := 1; c < numClasses; c++ {
			if score := preds[(4+c)*numCandidates+i]; score > best {
				best = score
				classID = c
			}
		}

		confidence := float64(best)
		if confidence < threshold {
			continue
		}

		box := scaleBox(
			preds[i],
			preds[numCandidates+i],
			preds[2*numCandidates+i],
			preds[3*numCandidates+i],
			inputSize, origWidth, origHeight,
		)
		if box.Width() <= 0 || box.Height() <= 0 {
			continue
		}

		records = append(records, models.DetectionRecord{
			Class:      classLabel(names, classID),
			Confidence: confidence,
			Box:        box,
			Severity:   policy.Classify(confidence),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Confidence > records[j].Confidence
	})

	return records
}

// scaleBox converts a center-format box from model input coordinates to
// corner format in source image coordinates, clamped to the image bounds.
func scaleBox(cx, cy, w, h float32, inputSize, origWidth, origHeight int) models.BoundingBox {
	scaleX := float64(origWidth) / float64(inputSize)
	scaleY := float64(origHeight) / float64(inputSize)

	x1 := (float64(cx) - float64(w)/2) * scaleX
	y1 := (float64(cy) - float64(h)/2) * scaleY
	x2 := (float64(cx) + float64(w)/2) * scaleX
	y2 := (float64(cy) + float64(h)/2) * scaleY

	return models.BoundingBox{
		X1: clamp(x1, 0, float64(origWidth)),
		Y1: clamp(y1, 0, float64(origHeight)),
		X2: clamp(x2, 0, float64(origWidth)),
		Y2: clamp(y2, 0, float64(origHeight)),
	}
}

func classLabel(names []string, classID int) string {
	if classID >= 0 && classID < len(names) && names[classID] != "" {
		return names[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
