package detections

import "fmt"

// InvalidImageError reports an image that cannot be analyzed: nil, zero
// dimension, or otherwise unusable. The caller should prompt for a new
// image.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %s", e.Reason)
}

// InferenceError wraps a failure inside the model runtime. It is transient
// from the caller's point of view; retrying the same request is allowed.
type InferenceError struct {
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference: %v", e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }
