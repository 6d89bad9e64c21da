package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/detections"
)

type stubModel struct {
	path string
}

func (s *stubModel) Run(context.Context, []float32) ([]float32, error) { return nil, nil }
func (s *stubModel) ClassNames() []string                              { return []string{"crack"} }
func (s *stubModel) InputSize() int                                    { return 64 }
func (s *stubModel) Candidates() int                                   { return 84 }

func TestRegistry_LoadsOncePerPath(t *testing.T) {
	var loads atomic.Int64
	reg := New(func(path string) (detections.Model, error) {
		loads.Add(1)
		return &stubModel{path: path}, nil
	})

	first, err := reg.Get("weights.onnx")
	require.NoError(t, err)

	second, err := reg.Get("weights.onnx")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, int64(1), loads.Load())
}

func TestRegistry_ConcurrentFirstCallsMerge(t *testing.T) {
	var loads atomic.Int64
	reg := New(func(path string) (detections.Model, error) {
		loads.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return &stubModel{path: path}, nil
	})

	const callers = 16
	handles := make([]detections.Model, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = reg.Get("weights.onnx")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
	require.Equal(t, int64(1), loads.Load(), "exactly one underlying load")
	for i := 1; i < callers; i++ {
		require.Same(t, handles[0], handles[i], "all callers share the handle")
	}
}

func TestRegistry_DistinctPathsLoadSeparately(t *testing.T) {
	var loads atomic.Int64
	reg := New(func(path string) (detections.Model, error) {
		loads.Add(1)
		return &stubModel{path: path}, nil
	})

	a, err := reg.Get("a.onnx")
	require.NoError(t, err)
	b, err := reg.Get("b.onnx")
	require.NoError(t, err)

	require.NotSame(t, a, b)
	require.Equal(t, int64(2), loads.Load())
	require.Equal(t, 2, reg.Len())
}

func TestRegistry_ErrorCarriesPathAndAllowsRetry(t *testing.T) {
	var loads atomic.Int64
	fail := true
	reg := New(func(path string) (detections.Model, error) {
		loads.Add(1)
		if fail {
			return nil, errors.New("corrupt checkpoint")
		}
		return &stubModel{path: path}, nil
	})

	_, err := reg.Get("broken.onnx")
	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "broken.onnx", loadErr.Path)
	require.Contains(t, loadErr.Error(), "corrupt checkpoint")

	// A failed load is not cached: once the artifact is fixed, Get works.
	fail = false
	model, err := reg.Get("broken.onnx")
	require.NoError(t, err)
	require.NotNil(t, model)
	require.Equal(t, int64(2), loads.Load())
}

func TestONNXLoader_MissingArtifact(t *testing.T) {
	loader := ONNXLoader(SessionConfig{
		InputSize:  640,
		PoolSize:   1,
		ClassNames: DefaultClassNames(),
	})

	_, err := loader("testdata/does-not-exist.onnx")
	require.Error(t, err)
	require.Contains(t, err.Error(), "weights artifact not found")
}

func TestLoadClassNames(t *testing.T) {
	_, err := LoadClassNames("testdata/does-not-exist.txt")
	require.Error(t, err)
}

func TestDefaultClassNames_NonEmpty(t *testing.T) {
	names := DefaultClassNames()
	require.NotEmpty(t, names)
	for _, name := range names {
		require.NotEmpty(t, name)
	}
}
