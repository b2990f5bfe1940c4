package adapter

import (
	"errors"
	"fmt"
	"math"

	"tabbench/pkg/dataprep"
	"tabbench/pkg/dataset"
	"tabbench/pkg/hparams"
	"tabbench/pkg/model"
	"tabbench/pkg/pipeline"
	"tabbench/pkg/stats"
)

var ErrUnknown = errors.New("unknown model")

// Model describes how to build one estimator family from tuned
// hyperparameters. It is stateless.
type Model struct {
	Name     string
	Task     dataset.Task
	Encoding Encoding
	Space    hparams.Space
	Build    func(p hparams.Params, train Data) (model.Estimator, error)
}

var (
	lrDim    = hparams.Dimension{Name: "learning_rate", Kind: hparams.LogUniform, Low: math.Log(1e-3), High: math.Log(0.5)}
	epochDim = hparams.Dimension{Name: "epochs", Kind: hparams.QUniform, Low: 10, High: 200, Q: 10}
	batchDim = hparams.Dimension{Name: "batch_size", Kind: hparams.Choice, Options: []any{16, 32, 64, 128}}
	seedDim  = hparams.Dimension{Name: "random_state", Kind: hparams.QUniform, Low: 1, High: 1 << 20, Q: 1}

	depthDim     = hparams.Dimension{Name: "max_depth", Kind: hparams.QUniform, Low: 1, High: 30, Q: 1}
	splitDim     = hparams.Dimension{Name: "min_samples_split", Kind: hparams.QUniform, Low: 2, High: 20, Q: 1}
	leafDim      = hparams.Dimension{Name: "min_samples_leaf", Kind: hparams.QUniform, Low: 1, High: 20, Q: 1}
	criterionDim = hparams.Dimension{Name: "criterion", Kind: hparams.Choice, Options: []any{"gini", "entropy"}}

	neighborsDim  = hparams.Dimension{Name: "n_neighbors", Kind: hparams.QUniform, Low: 1, High: 50, Q: 1}
	componentsDim = hparams.Dimension{Name: "n_components", Kind: hparams.QUniform, Low: 0, High: 20, Q: 1}
)

var catalog = []Model{
	{
		Name:     "LogisticRegressionModel",
		Task:     dataset.Classification,
		Encoding: OneHot,
		Space:    hparams.Space{lrDim, epochDim, batchDim, seedDim},
		Build:    buildLogistic,
	},
	{
		Name:     "KNNModel",
		Task:     dataset.Classification,
		Encoding: OneHot,
		Space:    hparams.Space{neighborsDim, componentsDim},
		Build:    buildKNN(false),
	},
	{
		Name:     "DecisionTreeModel",
		Task:     dataset.Classification,
		Encoding: Ordinal,
		Space:    hparams.Space{depthDim, splitDim, leafDim, criterionDim, seedDim},
		Build:    buildDecisionTree,
	},
	{
		Name:     "RandomForestModel",
		Task:     dataset.Classification,
		Encoding: Ordinal,
		Space: hparams.Space{
			{Name: "n_estimators", Kind: hparams.QLogUniform, Low: math.Log(10.5), High: math.Log(300.5), Q: 1},
			depthDim, splitDim, leafDim, criterionDim,
			{Name: "max_features", Kind: hparams.QUniform, Low: 0, High: 20, Q: 1},
			seedDim,
		},
		Build: buildRandomForest,
	},
	{
		Name:     "LinearRegressionModel",
		Task:     dataset.Regression,
		Encoding: OneHot,
		Space: hparams.Space{
			lrDim, epochDim, batchDim,
			{Name: "degree", Kind: hparams.Choice, Options: []any{1, 2}},
			seedDim,
		},
		Build: buildLinear,
	},
	{
		Name:     "KNNRegressorModel",
		Task:     dataset.Regression,
		Encoding: OneHot,
		Space:    hparams.Space{neighborsDim, componentsDim},
		Build:    buildKNN(true),
	},
}

// All returns every known model, in catalog order.
func All() []Model {
	return append([]Model(nil), catalog...)
}

func Lookup(name string) (Model, error) {
	for _, m := range catalog {
		if m.Name == name {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

func ByTask(task dataset.Task) []Model {
	var out []Model
	for _, m := range catalog {
		if m.Task == task {
			out = append(out, m)
		}
	}
	return out
}

// getter collects the first conversion error so builders read linearly.
type getter struct {
	p   hparams.Params
	err error
}

func (g *getter) floatParam(name string, def float64) float64 {
	v, err := g.p.Float(name, def)
	if err != nil && g.err == nil {
		g.err = err
	}
	return v
}

func (g *getter) intParam(name string, def int) int {
	v, err := g.p.Int(name, def)
	if err != nil && g.err == nil {
		g.err = err
	}
	return v
}

func (g *getter) stringParam(name, def string) string {
	v, err := g.p.String(name, def)
	if err != nil && g.err == nil {
		g.err = err
	}
	return v
}

func buildLogistic(p hparams.Params, _ Data) (model.Estimator, error) {
	g := &getter{p: p}
	lr := g.floatParam("learning_rate", 0.1)
	epochs := g.intParam("epochs", 100)
	batch := g.intParam("batch_size", 32)
	seed := int64(g.intParam("random_state", 1))
	if g.err != nil {
		return nil, g.err
	}
	ovr := &model.OneVsRest{New: func() *model.LogisticRegression {
		return model.NewLogisticRegression(0, lr, epochs, batch, seed)
	}}
	return pipeline.NewPipeline(ovr, stats.NewStandardScaler()), nil
}

func buildKNN(regression bool) func(hparams.Params, Data) (model.Estimator, error) {
	return func(p hparams.Params, train Data) (model.Estimator, error) {
		g := &getter{p: p}
		k := g.intParam("n_neighbors", 5)
		components := g.intParam("n_components", 0)
		if g.err != nil {
			return nil, g.err
		}
		if k < 1 {
			return nil, fmt.Errorf("adapter: n_neighbors must be >= 1, got %d", k)
		}
		steps := []model.Transformer{stats.NewStandardScaler()}
		if components > 0 && components < train.NFeatures() {
			steps = append(steps, model.NewPCA(components, 50, 1))
		}
		return pipeline.NewPipeline(model.NewKNN(k, regression), steps...), nil
	}
}

// buildDecisionTree returns the bare tree so its weights can be persisted.
func buildDecisionTree(p hparams.Params, _ Data) (model.Estimator, error) {
	g := &getter{p: p}
	t := model.NewDecisionTreeClassifier(
		model.WithMaxDepth(g.intParam("max_depth", 0)),
		model.WithMinSamplesSplit(g.intParam("min_samples_split", 2)),
		model.WithMinSamplesLeaf(g.intParam("min_samples_leaf", 1)),
		model.WithCriterion(g.stringParam("criterion", "gini")),
		model.WithRandomState(int64(g.intParam("random_state", 1))),
	)
	if g.err != nil {
		return nil, g.err
	}
	return t, nil
}

func buildRandomForest(p hparams.Params, _ Data) (model.Estimator, error) {
	g := &getter{p: p}
	rf := model.NewRandomForest(
		model.WithNEstimators(g.intParam("n_estimators", 100)),
		model.WithForestSeed(int64(g.intParam("random_state", 1))),
	)
	rf.MaxDepth = g.intParam("max_depth", 0)
	rf.MinSamplesSplit = g.intParam("min_samples_split", 2)
	rf.MinSamplesLeaf = g.intParam("min_samples_leaf", 1)
	rf.MaxFeatures = g.intParam("max_features", 0)
	rf.Criterion = g.stringParam("criterion", "gini")
	if g.err != nil {
		return nil, g.err
	}
	return rf, nil
}

func buildLinear(p hparams.Params, _ Data) (model.Estimator, error) {
	g := &getter{p: p}
	lr := g.floatParam("learning_rate", 0.01)
	epochs := g.intParam("epochs", 100)
	batch := g.intParam("batch_size", 32)
	degree := g.intParam("degree", 1)
	seed := int64(g.intParam("random_state", 1))
	if g.err != nil {
		return nil, g.err
	}
	steps := []model.Transformer{stats.NewStandardScaler()}
	if degree >= 2 {
		steps = append(steps, &dataprep.Polynomial{Degree: 2}, stats.NewStandardScaler())
	}
	return pipeline.NewPipeline(model.NewLinearRegression(0, lr, epochs, batch, seed), steps...), nil
}
