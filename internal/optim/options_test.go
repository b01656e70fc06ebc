package optim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTrainingOptions(t *testing.T) {
	opts := DefaultTrainingOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, 0.9, opts.Momentum)
	assert.Equal(t, 0.01, opts.InitialLearnRate)
	assert.Equal(t, 1e-4, opts.L2Regularization)
	assert.Equal(t, 30, opts.MaxEpochs)
	assert.Equal(t, 128, opts.MiniBatchSize)
	assert.Equal(t, ShuffleOnce, opts.Shuffle)
	assert.Equal(t, ScheduleNone, opts.LearnRateSchedule)
	assert.Equal(t, EnvironmentCPU, opts.ExecutionEnvironment)
}

func TestParseTrainingOptions_OverlaysDefaults(t *testing.T) {
	opts, err := ParseTrainingOptions([]byte(`
momentum: 0.5
max_epochs: 4
learn_rate_schedule: piecewise
learn_rate_drop_period: 2
`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, opts.Momentum)
	assert.Equal(t, 4, opts.MaxEpochs)
	assert.Equal(t, SchedulePiecewise, opts.LearnRateSchedule)
	assert.Equal(t, 2, opts.LearnRateDropPeriod)
	assert.Equal(t, 0.01, opts.InitialLearnRate, "unset keys keep their default")
	assert.Equal(t, 128, opts.MiniBatchSize)

	empty, err := ParseTrainingOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTrainingOptions(), empty)
}

func TestParseTrainingOptions_Errors(t *testing.T) {
	_, err := ParseTrainingOptions([]byte("momentom: 0.5\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = ParseTrainingOptions([]byte("max_epochs: [1, 2]\n"))
	assert.Error(t, err)

	_, err = ParseTrainingOptions([]byte("momentum: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestTrainingOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TrainingOptions)
	}{
		{"negative momentum", func(o *TrainingOptions) { o.Momentum = -0.1 }},
		{"momentum one", func(o *TrainingOptions) { o.Momentum = 1 }},
		{"negative rate", func(o *TrainingOptions) { o.InitialLearnRate = -1 }},
		{"negative l2", func(o *TrainingOptions) { o.L2Regularization = -1 }},
		{"zero epochs", func(o *TrainingOptions) { o.MaxEpochs = 0 }},
		{"zero batch", func(o *TrainingOptions) { o.MiniBatchSize = 0 }},
		{"shuffle", func(o *TrainingOptions) { o.Shuffle = "every-epoch" }},
		{"schedule", func(o *TrainingOptions) { o.LearnRateSchedule = "step" }},
		{"drop factor", func(o *TrainingOptions) { o.LearnRateDropFactor = 2 }},
		{"drop period", func(o *TrainingOptions) { o.LearnRateDropPeriod = 0 }},
		{"verbose frequency", func(o *TrainingOptions) { o.VerboseFrequency = 0 }},
		{"environment", func(o *TrainingOptions) { o.ExecutionEnvironment = "tpu" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultTrainingOptions()
			tt.modify(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
		})
	}
}

func TestLoadTrainingOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mini_batch_size: 16\nshuffle: never\n"), 0o600))

	opts, err := LoadTrainingOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 16, opts.MiniBatchSize)
	assert.Equal(t, ShuffleNever, opts.Shuffle)

	_, err = LoadTrainingOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
