// Package results reads tuning results and persists evaluation results under
// <Root>/<Dataset>/<Model>/.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tabbench/pkg/hparams"
)

const (
	TuningFile     = "tuning.json"
	EvaluationFile = "evaluation.json"
	// WeightsFile is formatted with the split seed and test size.
	WeightsFile    = "weights-%d-%g.gob"
)

var (
	ErrTuningResultsMissing     = errors.New("no tuning results saved for this dataset and model")
	ErrEvaluationResultsMissing = errors.New("no evaluation results saved for this dataset and model")
)

// TuningResult is the outcome of a hyperparameter search, produced elsewhere.
type TuningResult struct {
	HP      hparams.Params `json:"hp"`
	Score   float64        `json:"score"`
	NTrials int            `json:"n_trials"`
}

// EvaluationResult is what gets written to evaluation.json. Field order is
// the on-disk key order.
type EvaluationResult struct {
	HP             hparams.Params `json:"hp"`
	Score          float64        `json:"score"`
	TuningNTrials  int            `json:"tuning_n_trials"`
	ValScore       float64        `json:"val_score"`
	TrainTime      float64        `json:"train_time"`
	EvaluationTime float64        `json:"evaluation_time"`
	MetricUsed     string         `json:"metric_used"`
}

// NewEvaluation combines a tuning result with a test-set measurement. Times
// are in seconds; a train time of -1 marks restored weights.
func NewEvaluation(t TuningResult, score, trainTime, evaluationTime float64, metric string) EvaluationResult {
	return EvaluationResult{
		HP:             t.HP,
		Score:          score,
		TuningNTrials:  t.NTrials,
		ValScore:       t.Score,
		TrainTime:      trainTime,
		EvaluationTime: evaluationTime,
		MetricUsed:     metric,
	}
}

// Store is a results tree on the local filesystem. Single-process use only.
type Store struct {
	Root string
}

func NewStore(root string) *Store { return &Store{Root: root} }

// Dir returns the directory holding the files for a dataset/model pair.
func (s *Store) Dir(dataset, model string) string {
	return filepath.Join(s.Root, dataset, model)
}

// WeightsPath returns where the pair's serialized estimator lives for the
// train/test split drawn with seed and testSize.
func (s *Store) WeightsPath(dataset, model string, seed int64, testSize float64) string {
	return filepath.Join(s.Dir(dataset, model), fmt.Sprintf(WeightsFile, seed, testSize))
}

// Tuning reads tuning.json. A missing file yields ErrTuningResultsMissing;
// malformed JSON is returned as is.
func (s *Store) Tuning(dataset, model string) (TuningResult, error) {
	var t TuningResult
	path := filepath.Join(s.Dir(dataset, model), TuningFile)
	if err := readJSON(path, &t); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TuningResult{}, fmt.Errorf("%w: %s", ErrTuningResultsMissing, path)
		}
		return TuningResult{}, err
	}
	return t, nil
}

// SaveTuning writes tuning.json, creating the pair directory.
func (s *Store) SaveTuning(dataset, model string, t TuningResult) error {
	return writeJSON(filepath.Join(s.Dir(dataset, model), TuningFile), t)
}

// Evaluation reads evaluation.json.
func (s *Store) Evaluation(dataset, model string) (EvaluationResult, error) {
	var e EvaluationResult
	path := filepath.Join(s.Dir(dataset, model), EvaluationFile)
	if err := readJSON(path, &e); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return EvaluationResult{}, fmt.Errorf("%w: %s", ErrEvaluationResultsMissing, path)
		}
		return EvaluationResult{}, err
	}
	return e, nil
}

// SaveEvaluation writes res unless a previous evaluation has an equal or
// better validation score in the metric's direction; in that case the file
// is left untouched and saved is false.
func (s *Store) SaveEvaluation(dataset, model string, maximize bool, res EvaluationResult) (saved bool, err error) {
	prev, err := s.Evaluation(dataset, model)
	switch {
	case errors.Is(err, ErrEvaluationResultsMissing):
	case err != nil:
		return false, err
	default:
		better := res.ValScore < prev.ValScore
		if maximize {
			better = res.ValScore > prev.ValScore
		}
		if !better {
			return false, nil
		}
	}
	if err := writeJSON(filepath.Join(s.Dir(dataset, model), EvaluationFile), res); err != nil {
		return false, err
	}
	return true, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// writeJSON writes v with 4-space indentation and without HTML escaping.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, bytes.TrimSuffix(buf.Bytes(), []byte("\n")), 0o644)
}
