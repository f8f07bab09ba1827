package model

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Runner executes a single-row tabular model.
type Runner interface {
	Run(features []float32) ([]float32, error)
	Close() error
}

// TensorSpec names the tensors of a single-input single-output model. Width is
// the number of values in the output row.
type TensorSpec struct {
	Input  string
	Output string
	Width  int64
}

// Opener builds a Runner for a model file.
type Opener func(path string, spec TensorSpec) (Runner, error)

var ortEnv struct {
	once sync.Once
	err  error
}

func initRuntime(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ShutdownRuntime releases the onnxruntime environment after all sessions are closed.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// ONNXOpener returns an Opener backed by onnxruntime. The runtime environment
// is initialised on first use.
func ONNXOpener(libPath string, threads int) Opener {
	return func(path string, spec TensorSpec) (Runner, error) {
		if err := initRuntime(libPath); err != nil {
			return nil, fmt.Errorf("onnx: init runtime: %w", err)
		}
		return newONNXRunner(path, spec, threads)
	}
}

type onnxRunner struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	spec    TensorSpec
}

func newONNXRunner(path string, spec TensorSpec, threads int) (*onnxRunner, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info %s: %w", path, err)
	}
	if !hasTensor(inputs, spec.Input) {
		return nil, fmt.Errorf("onnx: %s has no input %q", path, spec.Input)
	}
	if !hasTensor(outputs, spec.Output) {
		return nil, fmt.Errorf("onnx: %s has no output %q", path, spec.Output)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}
	defer opts.Destroy()
	if threads > 0 {
		if err := opts.SetIntraOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("onnx: set threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{spec.Input}, []string{spec.Output}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: load %s: %w", path, err)
	}
	return &onnxRunner{session: session, spec: spec}, nil
}

func hasTensor(infos []ort.InputOutputInfo, name string) bool {
	for _, info := range infos {
		if info.Name == name {
			return true
		}
	}
	return false
}

func (r *onnxRunner) Run(features []float32) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil, errors.New("onnx: session closed")
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(len(features))), features)
	if err != nil {
		return nil, fmt.Errorf("onnx: input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, r.spec.Width))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := r.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: run: %w", err)
	}
	return append([]float32(nil), out.GetData()...), nil
}

func (r *onnxRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}
