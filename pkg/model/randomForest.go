package model

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// RandomForest for classification
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => sqrt(p)
	Criterion       string
	Bootstrap       bool
	RandomState     int64

	Trees []*DecisionTreeClassifier
}

type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestSeed(seed int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the trees concurrently, each on its own bootstrap sample of row
// indices. The first failing tree cancels the rest.
func (rf *RandomForest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators < 1 {
		return errors.New("randomforest: n_estimators must be >= 1")
	}
	yi, err := intLabels(y)
	if err != nil {
		return err
	}

	maxFeatures := rf.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = sqrtFeatures(len(X[0]))
	}

	trees := make([]*DecisionTreeClassifier, rf.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seed := rf.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))
			idx := make([]int, n)
			for j := range idx {
				if rf.Bootstrap {
					idx[j] = treeRand.Intn(n)
				} else {
					idx[j] = j
				}
			}
			tree := NewDecisionTreeClassifier(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMinSamplesLeaf(rf.MinSamplesLeaf),
				WithCriterion(rf.Criterion),
				WithMaxFeatures(maxFeatures),
				WithRandomState(seed),
			)
			if err := tree.fit(gctx, X, yi, idx); err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

// Predict returns the majority vote of all trees; ties go to the smaller label.
func (rf *RandomForest) Predict(X [][]float64) []float64 {
	all := make([][]float64, len(rf.Trees))
	for t, tree := range rf.Trees {
		all[t] = tree.Predict(X)
	}
	out := make([]float64, len(X))
	parallelRows(len(X), func(start, end int) {
		for i := start; i < end; i++ {
			counts := make(map[float64]int)
			for t := range all {
				counts[all[t][i]]++
			}
			best, bestCount := 0.0, -1
			for cls, cnt := range counts {
				if cnt > bestCount || (cnt == bestCount && cls < best) {
					best, bestCount = cls, cnt
				}
			}
			out[i] = best
		}
	})
	return out
}

func sqrtFeatures(p int) int {
	k := 1
	for (k+1)*(k+1) <= p {
		k++
	}
	return k
}
