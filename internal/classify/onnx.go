package classify

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"botcheck/internal/model"
)

// ortEnv guards the process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// labelOutputs are the names skl2onnx gives the predicted-class output.
var labelOutputs = []string{"output_label", "label"}

// ONNXPredictor runs a classifier exported to ONNX (e.g. a scikit-learn
// random forest converted with skl2onnx).
type ONNXPredictor struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	width      int64
}

// NewONNXPredictor loads modelPath and checks it takes width float features.
func NewONNXPredictor(modelPath, libPath string, width int) (*ONNXPredictor, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, &model.ModelError{Op: "load", Err: err}
	}
	if err := initORT(libPath); err != nil {
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("onnx: failed to initialize runtime: %w", err)}
	}
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("onnx: failed to read model info: %w", err)}
	}
	if len(inputs) != 1 {
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("onnx: expected 1 input, got %d", len(inputs))}
	}
	dims := inputs[0].Dimensions
	if len(dims) != 2 || (dims[1] > 0 && dims[1] != int64(width)) {
		return nil, &model.ModelError{Op: "load", Err: &model.SchemaDriftError{Want: width, Got: int(lastDim(dims))}}
	}
	label, err := pickLabelOutput(outputs)
	if err != nil {
		return nil, &model.ModelError{Op: "load", Err: err}
	}
	if err := checkIOTypes(inputs[0], label); err != nil {
		return nil, &model.ModelError{Op: "load", Err: err}
	}
	outputName := label.Name

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("onnx: failed to create session options: %w", err)}
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inputs[0].Name}, []string{outputName}, opts)
	if err != nil {
		return nil, &model.ModelError{Op: "load", Err: fmt.Errorf("onnx: failed to create session: %w", err)}
	}
	return &ONNXPredictor{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputName,
		width:      int64(width),
	}, nil
}

func pickLabelOutput(outputs []ort.InputOutputInfo) (ort.InputOutputInfo, error) {
	if len(outputs) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("onnx: model has no outputs")
	}
	for _, want := range labelOutputs {
		for _, o := range outputs {
			if o.Name == want {
				return o, nil
			}
		}
	}
	return outputs[0], nil
}

// checkIOTypes requires a float32 feature tensor in and an int64 label tensor
// out, the only layout Predict can feed and read.
func checkIOTypes(input, label ort.InputOutputInfo) error {
	if input.OrtValueType != ort.ONNXTypeTensor || input.DataType != ort.TensorElementDataTypeFloat {
		return fmt.Errorf("onnx: input %q must be a float32 tensor, got %v of %v", input.Name, input.OrtValueType, input.DataType)
	}
	if label.OrtValueType != ort.ONNXTypeTensor || label.DataType != ort.TensorElementDataTypeInt64 {
		return fmt.Errorf("onnx: label output %q must be an int64 tensor, got %v of %v", label.Name, label.OrtValueType, label.DataType)
	}
	return nil
}

func lastDim(d ort.Shape) int64 {
	if len(d) == 0 {
		return 0
	}
	return d[len(d)-1]
}

// Predict runs a single-row batch and returns the predicted class.
func (p *ONNXPredictor) Predict(ctx context.Context, x []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if int64(len(x)) != p.width {
		return 0, &model.SchemaDriftError{Want: int(p.width), Got: len(x)}
	}
	row := make([]float32, len(x))
	for i, v := range x {
		row[i] = float32(v)
	}
	in, err := ort.NewTensor(ort.NewShape(1, p.width), row)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := p.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}
	data := out.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("onnx: empty output %q", p.outputName)
	}
	return float64(data[0]), nil
}

func (p *ONNXPredictor) Close() error {
	if p.session == nil {
		return nil
	}
	return p.session.Destroy()
}
