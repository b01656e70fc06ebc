package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func TestStateDict(t *testing.T) {
	net, w, b := tinyNetwork(t)

	dict := net.StateDict()
	require.Len(t, dict, 2)
	assert.Equal(t, w.Data(), dict["fc_2.Weights"].Data())
	assert.Equal(t, b.Data(), dict["fc_2.Bias"].Data())
	assert.Equal(t, []string{"fc_2.Weights", "fc_2.Bias"}, net.StateKeys())
}

func TestLoadStateDict(t *testing.T) {
	net, _, _ := tinyNetwork(t)
	x, _ := tinyBatch()

	other := map[string]*tensor.Tensor{
		"fc_2.Weights": randTensor(tensor.Shape{4, 4, 1, 2}, 1),
		"fc_2.Bias":    randTensor(tensor.Shape{1, 1, 2, 1}, 2),
	}
	loaded, err := net.LoadStateDict(other)
	require.NoError(t, err)
	assert.Equal(t, other["fc_2.Weights"].Data(), loaded.StateDict()["fc_2.Weights"].Data())
	assert.NotSame(t, other["fc_2.Weights"], loaded.StateDict()["fc_2.Weights"], "values are copied")
	assert.NotEqual(t, net.Predict(x).Data(), loaded.Predict(x).Data())

	// Round trip through the original network's dict restores it.
	restored, err := loaded.LoadStateDict(net.StateDict())
	require.NoError(t, err)
	assert.Equal(t, net.Predict(x).Data(), restored.Predict(x).Data())
}

func TestLoadStateDict_Errors(t *testing.T) {
	net, _, _ := tinyNetwork(t)
	good := net.StateDict()

	_, err := net.LoadStateDict(map[string]*tensor.Tensor{"fc_2.Weights": good["fc_2.Weights"]})
	assert.ErrorContains(t, err, "fc_2.Bias")

	_, err = net.LoadStateDict(map[string]*tensor.Tensor{
		"fc_2.Weights": good["fc_2.Weights"],
		"fc_2.Bias":    tensor.Zeros(tensor.Shape{1, 1, 3, 1}),
	})
	assert.ErrorIs(t, err, ErrParameterSize)

	_, err = net.LoadStateDict(map[string]*tensor.Tensor{
		"fc_2.Weights": good["fc_2.Weights"],
		"fc_2.Bias":    good["fc_2.Bias"],
		"conv_9.Bias":  good["fc_2.Bias"],
	})
	assert.Error(t, err)
}
