// Package orchestrator evaluates every model on every dataset with its tuned
// hyperparameters and records the results.
package orchestrator

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tabbench/pkg/adapter"
	"tabbench/pkg/ctxlog"
	"tabbench/pkg/dataset"
	"tabbench/pkg/guard"
	"tabbench/pkg/model"
	"tabbench/pkg/results"
)

const (
	DefaultMaxTrainingTime = 180 * time.Second
	DefaultWeightsModel    = "DecisionTreeModel"
)

// Outcome is the final state of one dataset/model pair.
type Outcome string

const (
	Pending         Outcome = "pending"
	SkippedNoTuning Outcome = "skipped_no_tuning"
	TimedOut        Outcome = "timed_out"
	OutOfMemory     Outcome = "out_of_memory"
	Evaluated       Outcome = "evaluated"
	Persisted       Outcome = "persisted"
	Discarded       Outcome = "discarded"
)

// DataSource yields the train and test splits of a dataset.
type DataSource interface {
	Get(ctx context.Context, spec dataset.Spec) (train, test dataset.Split, err error)
}

// PairResult reports what happened to one dataset/model pair. Evaluation is
// set once the pair reached Evaluated.
type PairResult struct {
	Dataset    string
	Model      string
	Outcome    Outcome
	Evaluation *results.EvaluationResult
}

type Orchestrator struct {
	source          DataSource
	store           *results.Store
	maxTrainingTime time.Duration
	weightsModel    string
	splitSeed       int64
	testSize        float64
}

type Option func(*Orchestrator)

// WithMaxTrainingTime sets the per-pair ceiling; zero or less disables it.
func WithMaxTrainingTime(d time.Duration) Option {
	return func(o *Orchestrator) { o.maxTrainingTime = d }
}

// WithWeightsModel names the model whose trained weights are saved and
// restored; an empty name disables weight persistence.
func WithWeightsModel(name string) Option {
	return func(o *Orchestrator) { o.weightsModel = name }
}

// WithSplit records the seed and test size the source splits datasets with.
// Weights are only persisted for a seeded split, since restoring a tree
// trained on a different split would score it on its own training rows.
func WithSplit(seed int64, testSize float64) Option {
	return func(o *Orchestrator) {
		o.splitSeed = seed
		o.testSize = testSize
	}
}

func New(source DataSource, store *results.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:          source,
		store:           store,
		maxTrainingTime: DefaultMaxTrainingTime,
		weightsModel:    DefaultWeightsModel,
		testSize:        dataset.DefaultTestSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run evaluates the cross product of datasets and models, sequentially. Each
// dataset is loaded once. Missing tuning results, timeouts and out-of-memory
// conditions are logged and the run moves on; any other error stops the run
// and is returned along with the pairs finished so far.
func (o *Orchestrator) Run(ctx context.Context, datasets []dataset.Spec, models []adapter.Model) ([]PairResult, error) {
	runID := uuid.New()
	logger := ctxlog.FromContext(ctx).With("run_id", runID.String())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("Evaluation run started.", "datasets", len(datasets), "models", len(models), "max_training_time", o.maxTrainingTime)
	if o.weightsModel != "" && o.splitSeed == 0 {
		logger.Info("Weight persistence is off for unseeded splits.", "weights_model", o.weightsModel)
	}

	var out []PairResult
	for _, ds := range datasets {
		dsCtx := ctxlog.WithLogger(ctx, logger.With("dataset", ds.Name))
		ctxlog.FromContext(dsCtx).Info("Loading dataset.")
		train, test, err := o.source.Get(dsCtx, ds)
		if err != nil {
			return out, fmt.Errorf("dataset %s: %w", ds.Name, err)
		}
		for _, m := range models {
			pairCtx := ctxlog.WithLogger(dsCtx, ctxlog.FromContext(dsCtx).With("model", m.Name))
			res, err := o.evaluatePair(pairCtx, ds, m, train, test)
			if err != nil {
				return out, fmt.Errorf("dataset %s, model %s: %w", ds.Name, m.Name, err)
			}
			out = append(out, res)
		}
	}
	logger.Info("Evaluation run finished.", "pairs", len(out))
	return out, nil
}

// measurement is what the guarded evaluation hands back.
type measurement struct {
	estimator      model.Estimator
	trained        bool
	score          float64
	trainTime      float64
	evaluationTime float64
}

func (o *Orchestrator) evaluatePair(ctx context.Context, ds dataset.Spec, m adapter.Model, train, test dataset.Split) (PairResult, error) {
	logger := ctxlog.FromContext(ctx)
	res := PairResult{Dataset: ds.Name, Model: m.Name, Outcome: Pending}

	tuning, err := o.store.Tuning(ds.Name, m.Name)
	if errors.Is(err, results.ErrTuningResultsMissing) {
		logger.Info("No hyper-parameters saved for this dataset and model.")
		res.Outcome = SkippedNoTuning
		return res, nil
	}
	if err != nil {
		return res, err
	}
	metric, err := model.LookupMetric(ds.Metric)
	if err != nil {
		return res, err
	}

	var meas measurement
	err = guard.Run(ctx, o.maxTrainingTime, func(ctx context.Context) error {
		var err error
		meas, err = o.evaluate(ctx, ds, m, metric, tuning, train, test)
		return err
	})
	switch {
	case errors.Is(err, guard.ErrTimeout):
		logger.Warn("Model training and testing exceeded allowed time.", "max_training_time", o.maxTrainingTime)
		res.Outcome = TimedOut
		return res, nil
	case errors.Is(err, guard.ErrOutOfMemory):
		logger.Warn("Memory requirements for this model with this dataset are too high.", "error", err)
		res.Outcome = OutOfMemory
		return res, nil
	case err != nil:
		return res, err
	}
	res.Outcome = Evaluated

	if meas.trained && o.persistsWeights(m.Name) {
		if err := o.saveWeights(ds.Name, m.Name, meas.estimator); err != nil {
			return res, err
		}
	}

	eval := results.NewEvaluation(tuning, meas.score, meas.trainTime, meas.evaluationTime, ds.Metric)
	res.Evaluation = &eval
	saved, err := o.store.SaveEvaluation(ds.Name, m.Name, ds.Maximize(), eval)
	if err != nil {
		return res, err
	}
	res.Outcome = Discarded
	if saved {
		res.Outcome = Persisted
	}
	logger.Info("Results on test set.",
		"metric", ds.Metric,
		"score", meas.score,
		"val_score", tuning.Score,
		"train_time", meas.trainTime,
		"evaluation_time", meas.evaluationTime,
		"outcome", res.Outcome,
	)
	return res, nil
}

// evaluate prepares the data, trains (or restores) and scores the estimator.
// It runs under the guard and must not touch shared state.
func (o *Orchestrator) evaluate(ctx context.Context, ds dataset.Spec, m adapter.Model, metric model.Metric,
	tuning results.TuningResult, train, test dataset.Split) (measurement, error) {
	start := time.Now()
	trainData, testData, err := adapter.Prepare(train, test, ds.Categorical, m.Encoding)
	if err != nil {
		return measurement{}, err
	}
	est, err := m.Build(tuning.HP, trainData)
	if err != nil {
		return measurement{}, err
	}

	meas := measurement{estimator: est}
	restored, err := o.restoreWeights(ds.Name, m.Name, est)
	if err != nil {
		return measurement{}, err
	}
	if restored {
		ctxlog.FromContext(ctx).Info("Restored saved weights.")
		meas.trainTime = -1
	} else {
		if err := est.Fit(ctx, trainData.X, trainData.Y); err != nil {
			return measurement{}, err
		}
		meas.trained = true
		meas.trainTime = time.Since(start).Seconds()
	}

	start = time.Now()
	value := metric.Fn(testData.Y, est.Predict(testData.X))
	meas.score = metric.Score(value)
	meas.evaluationTime = time.Since(start).Seconds()
	return meas, nil
}

func (o *Orchestrator) persistsWeights(modelName string) bool {
	return o.weightsModel != "" && modelName == o.weightsModel && o.splitSeed != 0
}

func (o *Orchestrator) weightsPath(dsName, modelName string) string {
	return o.store.WeightsPath(dsName, modelName, o.splitSeed, o.testSize)
}

func (o *Orchestrator) restoreWeights(dsName, modelName string, est model.Estimator) (bool, error) {
	if !o.persistsWeights(modelName) {
		return false, nil
	}
	u, ok := est.(encoding.BinaryUnmarshaler)
	if !ok {
		return false, nil
	}
	raw, err := os.ReadFile(o.weightsPath(dsName, modelName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := u.UnmarshalBinary(raw); err != nil {
		return false, fmt.Errorf("restore weights: %w", err)
	}
	return true, nil
}

func (o *Orchestrator) saveWeights(dsName, modelName string, est model.Estimator) error {
	mm, ok := est.(encoding.BinaryMarshaler)
	if !ok {
		return nil
	}
	raw, err := mm.MarshalBinary()
	if err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	path := o.weightsPath(dsName, modelName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
