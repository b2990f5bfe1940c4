package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabbench/pkg/hparams"
)

func TestTuningMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Tuning("AdultDataset", "KNNModel")
	assert.ErrorIs(t, err, ErrTuningResultsMissing)
}

func TestTuningMalformed(t *testing.T) {
	s := NewStore(t.TempDir())
	dir := s.Dir("AdultDataset", "KNNModel")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TuningFile), []byte("{"), 0o644))

	_, err := s.Tuning("AdultDataset", "KNNModel")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTuningResultsMissing)
}

func TestTuningRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	dir := s.Dir("AdultDataset", "KNNModel")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TuningFile),
		[]byte(`{"hp": {"n_neighbors": 7, "weights": "distance"}, "score": 0.84, "n_trials": 50}`), 0o644))

	got, err := s.Tuning("AdultDataset", "KNNModel")
	require.NoError(t, err)
	want := TuningResult{HP: hparams.Params{"n_neighbors": 7.0, "weights": "distance"}, Score: 0.84, NTrials: 50}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tuning mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveEvaluationFormat(t *testing.T) {
	s := NewStore(t.TempDir())
	tuning := TuningResult{HP: hparams.Params{"criterion": "gini<&>"}, Score: 0.5, NTrials: 3}
	saved, err := s.SaveEvaluation("D", "M", true, NewEvaluation(tuning, 0.25, -1, 0.5, "accuracy"))
	require.NoError(t, err)
	assert.True(t, saved)

	raw, err := os.ReadFile(filepath.Join(s.Dir("D", "M"), EvaluationFile))
	require.NoError(t, err)
	want := `{
    "hp": {
        "criterion": "gini<&>"
    },
    "score": 0.25,
    "tuning_n_trials": 3,
    "val_score": 0.5,
    "train_time": -1,
    "evaluation_time": 0.5,
    "metric_used": "accuracy"
}`
	assert.Equal(t, want, string(raw))
}

func TestSaveEvaluationOverwriteRule(t *testing.T) {
	tests := []struct {
		name     string
		maximize bool
		prev     float64
		next     float64
		saved    bool
	}{
		{"maximized better", true, 0.8, 0.9, true},
		{"maximized equal", true, 0.8, 0.8, false},
		{"maximized worse", true, 0.8, 0.7, false},
		{"minimized better", false, 0.3, 0.2, true},
		{"minimized equal", false, 0.3, 0.3, false},
		{"minimized worse", false, 0.3, 0.4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(t.TempDir())
			first := NewEvaluation(TuningResult{HP: hparams.Params{"k": 1.0}, Score: tt.prev}, 1, 1, 1, "m")
			saved, err := s.SaveEvaluation("D", "M", tt.maximize, first)
			require.NoError(t, err)
			require.True(t, saved, "no prior file is always written")

			path := filepath.Join(s.Dir("D", "M"), EvaluationFile)
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			second := NewEvaluation(TuningResult{HP: hparams.Params{"k": 2.0}, Score: tt.next}, 2, 2, 2, "m")
			saved, err = s.SaveEvaluation("D", "M", tt.maximize, second)
			require.NoError(t, err)
			assert.Equal(t, tt.saved, saved)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			if tt.saved {
				got, err := s.Evaluation("D", "M")
				require.NoError(t, err)
				assert.Equal(t, tt.next, got.ValScore)
			} else {
				assert.Equal(t, before, after, "file must be byte-for-byte unchanged")
			}
		})
	}
}

func TestSaveEvaluationCorruptPrevious(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, os.MkdirAll(s.Dir("D", "M"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir("D", "M"), EvaluationFile), []byte("not json"), 0o644))
	_, err := s.SaveEvaluation("D", "M", true, EvaluationResult{})
	assert.Error(t, err)
}

func TestSaveTuningCreatesDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, s.SaveTuning("D", "M", TuningResult{HP: hparams.Params{}, Score: 1, NTrials: 2}))
	got, err := s.Tuning("D", "M")
	require.NoError(t, err)
	assert.Equal(t, 2, got.NTrials)
	assert.Equal(t, filepath.Join(s.Root, "D", "M", "weights-7-0.25.gob"), s.WeightsPath("D", "M", 7, 0.25))
}
