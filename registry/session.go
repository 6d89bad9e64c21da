package registry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/detections"
)

const (
	// DefaultPoolSize is the number of ONNX sessions kept per model.
	DefaultPoolSize = 4
	// DefaultAcquireTimeout bounds the wait for a free session under load.
	DefaultAcquireTimeout = 5 * time.Second
)

// SessionConfig describes how to open ONNX sessions for a weights artifact.
type SessionConfig struct {
	InputSize      int
	PoolSize       int
	ClassNames     []string
	AcquireTimeout time.Duration
}

// ONNXLoader returns a Loader that opens the weights artifact as a pool of
// ONNX runtime sessions. The artifact is read and validated once; the pool
// exists because a session with pre-allocated I/O tensors is not reentrant,
// while the returned handle must serve concurrent inference calls.
func ONNXLoader(cfg SessionConfig) Loader {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = DefaultAcquireTimeout
	}

	return func(weightsPath string) (detections.Model, error) {
		if _, err := os.Stat(weightsPath); err != nil {
			return nil, fmt.Errorf("weights artifact not found: %w", err)
		}

		candidates := detections.CandidateCount(cfg.InputSize)
		m := &Model{
			path:           weightsPath,
			names:          cfg.ClassNames,
			inputSize:      cfg.InputSize,
			candidates:     candidates,
			acquireTimeout: cfg.AcquireTimeout,
			sessions:       make(chan *ortSession, cfg.PoolSize),
		}

		for i := 0; i < cfg.PoolSize; i++ {
			sess, err := newORTSession(weightsPath, cfg.InputSize, candidates, len(cfg.ClassNames))
			if err != nil {
				m.Destroy()
				return nil, fmt.Errorf("initialize session %d: %w", i, err)
			}
			m.sessions <- sess
		}

		return m, nil
	}
}

// Model is the ONNX-backed weights handle. It is immutable after
// construction and safe for concurrent Run calls.
type Model struct {
	path           string
	names          []string
	inputSize      int
	candidates     int
	acquireTimeout time.Duration
	sessions       chan *ortSession
}

// Run copies the input into a pooled session, executes it, and returns a
// copy of the output tensor so the session can be reused immediately.
func (m *Model) Run(ctx context.Context, input []float32) ([]float32, error) {
	sess, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { m.sessions <- sess }()

	copy(sess.input.GetData(), input)
	if err := sess.session.Run(); err != nil {
		return nil, err
	}

	raw := sess.output.GetData()
	out := make([]float32, len(raw))
	copy(out, raw)
	return out, nil
}

func (m *Model) acquire(ctx context.Context) (*ortSession, error) {
	select {
	case sess := <-m.sessions:
		return sess, nil
	case <-time.After(m.acquireTimeout):
		return nil, fmt.Errorf("timeout waiting for available session")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ClassNames maps class ids to labels.
func (m *Model) ClassNames() []string { return m.names }

// InputSize is the square side length the model expects.
func (m *Model) InputSize() int { return m.inputSize }

// Candidates is the raw candidate count per inference pass.
func (m *Model) Candidates() int { return m.candidates }

// Path is the weights artifact this handle was loaded from.
func (m *Model) Path() string { return m.path }

// Destroy releases the sessions currently in the pool. Callers must have
// stopped issuing Run calls first.
func (m *Model) Destroy() {
	for {
		select {
		case sess := <-m.sessions:
			sess.destroy()
		default:
			return
		}
	}
}

// ortSession bundles an ONNX session with its pre-allocated I/O tensors.
type ortSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newORTSession(modelPath string, inputSize, candidates, numClasses int) (*ortSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())
	options.SetInterOpNumThreads(runtime.NumCPU())

	inputShape := ort.NewShape(1, 3, int64(inputSize), int64(inputSize))
	outputShape := ort.NewShape(1, int64(4+numClasses), int64(candidates))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &ortSession{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

func (s *ortSession) destroy() {
	if s.session != nil {
		s.session.Destroy()
	}
	if s.input != nil {
		s.input.Destroy()
	}
	if s.output != nil {
		s.output.Destroy()
	}
}
