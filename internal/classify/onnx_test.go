package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func tensorInfo(name string, dt ort.TensorElementDataType, dims ...int64) ort.InputOutputInfo {
	return ort.InputOutputInfo{Name: name, OrtValueType: ort.ONNXTypeTensor, DataType: dt, Dimensions: ort.NewShape(dims...)}
}

func TestPickLabelOutput(t *testing.T) {
	probs := ort.InputOutputInfo{Name: "output_probability", OrtValueType: ort.ONNXTypeSequence}
	label := tensorInfo("output_label", ort.TensorElementDataTypeInt64, -1)
	got, err := pickLabelOutput([]ort.InputOutputInfo{probs, label})
	require.NoError(t, err)
	assert.Equal(t, "output_label", got.Name)

	got, err = pickLabelOutput([]ort.InputOutputInfo{probs})
	require.NoError(t, err)
	assert.Equal(t, "output_probability", got.Name)

	_, err = pickLabelOutput(nil)
	assert.Error(t, err)
}

func TestCheckIOTypes(t *testing.T) {
	in := tensorInfo("float_input", ort.TensorElementDataTypeFloat, -1, 49)
	label := tensorInfo("output_label", ort.TensorElementDataTypeInt64, -1)
	require.NoError(t, checkIOTypes(in, label))

	err := checkIOTypes(tensorInfo("double_input", ort.TensorElementDataTypeDouble, -1, 49), label)
	assert.ErrorContains(t, err, "double_input")

	err = checkIOTypes(in, tensorInfo("output_label", ort.TensorElementDataTypeString, -1))
	assert.ErrorContains(t, err, "int64")

	err = checkIOTypes(in, ort.InputOutputInfo{Name: "output_probability", OrtValueType: ort.ONNXTypeSequence})
	assert.ErrorContains(t, err, "output_probability")
}
