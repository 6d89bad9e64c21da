package registry

import "fmt"

// ModelLoadError reports a weights artifact that could not be loaded:
// missing path, unreadable file, or an incompatible checkpoint. It is fatal
// to the request but not to the process; the caller may retry with another
// path.
type ModelLoadError struct {
	Path  string
	Cause error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Path, e.Cause)
}

func (e *ModelLoadError) Unwrap() error { return e.Cause }
