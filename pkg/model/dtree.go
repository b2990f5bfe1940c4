package model

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// DecisionTreeClassifier is a CART-style classifier. Missing values (NaN) are
// routed to whichever side of a split yields the larger gain.
type DecisionTreeClassifier struct {
	MaxDepth            int     // 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => all features, >0 => features sampled per split
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	root    *dtNode
	classes []int // unique class labels, aligned with leaf probas
}

// dtNode is exported field-wise so the tree survives a gob round trip.
type dtNode struct {
	IsLeaf    bool
	Feature   int
	Threshold float64 // x <= Threshold goes left
	IsCat     bool    // equality split: x == Threshold goes left
	Left      *dtNode
	Right     *dtNode

	N         int
	Probas    []float64
	PredIndex int
}

type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Fit trains the tree. Labels must be integral.
func (t *DecisionTreeClassifier) Fit(ctx context.Context, X [][]float64, y []float64) error {
	yi, err := intLabels(y)
	if err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fit(ctx, X, yi, idx)
}

// fit grows the tree on the rows listed in idx; rows may repeat (bootstrap).
func (t *DecisionTreeClassifier) fit(ctx context.Context, X [][]float64, y []int, idx []int) error {
	if len(X) == 0 {
		return errors.New("dtree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("dtree: X and y length mismatch")
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return errors.New("dtree: inconsistent number of features in X rows")
		}
	}

	t.classes = nil
	seen := map[int]struct{}{}
	for _, ii := range idx {
		if _, ok := seen[y[ii]]; !ok {
			seen[y[ii]] = struct{}{}
			t.classes = append(t.classes, y[ii])
		}
	}
	sort.Ints(t.classes)
	if len(t.classes) == 0 {
		return errors.New("dtree: no classes in y")
	}

	cls := make([]int, len(y))
	for _, ii := range idx {
		cls[ii] = classIndex(y[ii], t.classes)
	}

	b := &treeBuilder{
		tree:     t,
		ctx:      ctx,
		X:        X,
		p:        p,
		nClasses: len(t.classes),
		cls:      cls,
		rnd:      rand.New(rand.NewSource(t.RandomState)),
		impurity: giniFromCounts,
	}
	if t.Criterion == "entropy" {
		b.impurity = entropyFromCounts
	}
	t.root = b.buildNode(idx, 0)
	return ctx.Err()
}

// Predict returns the most probable class for each row.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = float64(t.classes[argmaxFloat(t.predictProbaSingle(X[i]))])
	}
	return out
}

// PredictProba returns per-class probabilities aligned with Classes.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.predictProbaSingle(X[i])
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (t *DecisionTreeClassifier) Classes() []int { return t.classes }

type treeSnapshot struct {
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	Criterion           string
	MaxFeatures         int
	MinImpurityDecrease float64
	RandomState         int64
	Classes             []int
	Root                *dtNode
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (t *DecisionTreeClassifier) MarshalBinary() ([]byte, error) {
	if t.root == nil {
		return nil, errors.New("dtree: tree not trained")
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(treeSnapshot{
		MaxDepth:            t.MaxDepth,
		MinSamplesSplit:     t.MinSamplesSplit,
		MinSamplesLeaf:      t.MinSamplesLeaf,
		Criterion:           t.Criterion,
		MaxFeatures:         t.MaxFeatures,
		MinImpurityDecrease: t.MinImpurityDecrease,
		RandomState:         t.RandomState,
		Classes:             t.classes,
		Root:                t.root,
	})
	return buf.Bytes(), err
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (t *DecisionTreeClassifier) UnmarshalBinary(data []byte) error {
	var s treeSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if s.Root == nil || len(s.Classes) == 0 {
		return errors.New("dtree: empty snapshot")
	}
	t.MaxDepth = s.MaxDepth
	t.MinSamplesSplit = s.MinSamplesSplit
	t.MinSamplesLeaf = s.MinSamplesLeaf
	t.Criterion = s.Criterion
	t.MaxFeatures = s.MaxFeatures
	t.MinImpurityDecrease = s.MinImpurityDecrease
	t.RandomState = s.RandomState
	t.classes = s.Classes
	t.root = s.Root
	return nil
}

// treeBuilder holds what stays fixed while a tree grows.
type treeBuilder struct {
	tree     *DecisionTreeClassifier
	ctx      context.Context
	X        [][]float64
	p        int
	nClasses int
	cls      []int // class index per row of X, valid for rows being fit
	rnd      *rand.Rand
	impurity func([]int) float64
}

type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	isCat     bool
	nanLeft   bool // side the missing rows were scored on
}

// maxCategoricalValues caps the distinct integer values for which equality
// splits are tried.
const maxCategoricalValues = 30

// sweepCheckEvery is how many thresholds are scanned between context checks.
const sweepCheckEvery = 1024

type pair struct {
	v float64
	i int
}

func (b *treeBuilder) leaf(node *dtNode, counts []int) *dtNode {
	node.IsLeaf = true
	node.Probas = countsToProbas(counts)
	node.PredIndex = argmax(counts)
	return node
}

func (b *treeBuilder) buildNode(idx []int, depth int) *dtNode {
	t := b.tree
	node := &dtNode{N: len(idx)}
	counts := b.counts(idx)

	if b.ctx.Err() != nil || isPure(counts) || (t.MinSamplesSplit > 0 && len(idx) < t.MinSamplesSplit) {
		return b.leaf(node, counts)
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return b.leaf(node, counts)
	}

	featIndices := make([]int, b.p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < b.p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + b.rnd.Intn(b.p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	parentImpurity := b.impurity(counts)
	results := make(chan splitResult, len(featIndices))
	var wg sync.WaitGroup
	for _, f := range featIndices {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results <- b.bestSplitForFeature(idx, f, parentImpurity)
		}(f)
	}
	wg.Wait()
	close(results)

	best := splitResult{feature: -1}
	for r := range results {
		if r.gain > best.gain || (r.gain == best.gain && r.feature >= 0 && (best.feature < 0 || r.feature < best.feature)) {
			best = r
		}
	}
	if b.ctx.Err() != nil || best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		return b.leaf(node, counts)
	}

	left, right := b.partition(idx, best)
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.IsCat = best.isCat
	node.Left = b.buildNode(left, depth+1)
	node.Right = b.buildNode(right, depth+1)
	return node
}

// partition sends each row to its side of the split. Missing values go to the
// side they were scored on.
func (b *treeBuilder) partition(idx []int, s splitResult) (left, right []int) {
	for _, ii := range idx {
		v := b.X[ii][s.feature]
		var goLeft bool
		switch {
		case math.IsNaN(v):
			goLeft = s.nanLeft
		case s.isCat:
			goLeft = v == s.threshold
		default:
			goLeft = v <= s.threshold
		}
		if goLeft {
			left = append(left, ii)
		} else {
			right = append(right, ii)
		}
	}
	return left, right
}

// bestSplitForFeature scans equality splits for small integer-valued features
// and threshold splits for all features. Rows are sorted once and class counts
// are carried along the sweep. NaN rows are tried on both sides.
func (b *treeBuilder) bestSplitForFeature(idx []int, f int, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}

	nanCounts := make([]int, b.nClasses)
	nNaN := 0
	valid := make([]pair, 0, len(idx))
	for _, ii := range idx {
		v := b.X[ii][f]
		if math.IsNaN(v) {
			nanCounts[b.cls[ii]]++
			nNaN++
		} else {
			valid = append(valid, pair{v, ii})
		}
	}
	if len(valid) == 0 {
		return result
	}
	total := make([]int, b.nClasses)
	for _, pv := range valid {
		total[b.cls[pv.i]]++
	}

	minLeaf := max(b.tree.MinSamplesLeaf, 1)
	lbuf := make([]int, b.nClasses)
	rbuf := make([]int, b.nClasses)
	// try scores a split given the class counts of the non-missing rows on
	// its left side.
	try := func(left []int, nLeft int, threshold float64, isCat bool) {
		nRight := len(valid) - nLeft
		for _, nanLeft := range []bool{true, false} {
			nl, nr := nLeft, nRight
			for c := range lbuf {
				lbuf[c] = left[c]
				rbuf[c] = total[c] - left[c]
			}
			if nanLeft {
				nl += nNaN
				addCounts(lbuf, nanCounts)
			} else {
				nr += nNaN
				addCounts(rbuf, nanCounts)
			}
			if nl >= minLeaf && nr >= minLeaf {
				weighted := (float64(nl)*b.impurity(lbuf) + float64(nr)*b.impurity(rbuf)) / float64(len(idx))
				if gain := parentImpurity - weighted; gain > result.gain {
					result = splitResult{gain: gain, feature: f, threshold: threshold, isCat: isCat, nanLeft: nanLeft}
				}
			}
			if nNaN == 0 {
				return
			}
		}
	}

	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })

	var uniques []float64
	for s, pv := range valid {
		if s == 0 || pv.v != valid[s-1].v {
			uniques = append(uniques, pv.v)
			if len(uniques) > maxCategoricalValues {
				break
			}
		}
	}
	if len(uniques) <= maxCategoricalValues && allIntLike(uniques) {
		group := make([]int, b.nClasses)
		start := 0
		for s := 1; s <= len(valid); s++ {
			if s < len(valid) && valid[s].v == valid[start].v {
				continue
			}
			clear(group)
			for _, pv := range valid[start:s] {
				group[b.cls[pv.i]]++
			}
			try(group, s-start, valid[start].v, true)
			start = s
		}
	}

	left := make([]int, b.nClasses)
	for s := 1; s < len(valid); s++ {
		if s%sweepCheckEvery == 0 && b.ctx.Err() != nil {
			return splitResult{feature: -1}
		}
		left[b.cls[valid[s-1].i]]++
		if valid[s].v == valid[s-1].v {
			continue
		}
		threshold := (valid[s-1].v + valid[s].v) / 2
		if threshold >= valid[s].v {
			threshold = valid[s-1].v
		}
		try(left, s, threshold, false)
	}
	return result
}

func (b *treeBuilder) counts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, ii := range idx {
		counts[b.cls[ii]]++
	}
	return counts
}

func (t *DecisionTreeClassifier) predictProbaSingle(x []float64) []float64 {
	if t.root == nil {
		p := make([]float64, max(len(t.classes), 1))
		for i := range p {
			p[i] = 1.0 / float64(len(p))
		}
		return p
	}
	node := t.root
	for !node.IsLeaf {
		val := x[node.Feature]
		switch {
		case math.IsNaN(val):
			// missing: follow the branch that saw more samples
			if node.Left.N >= node.Right.N {
				node = node.Left
			} else {
				node = node.Right
			}
		case node.IsCat && val == node.Threshold, !node.IsCat && val <= node.Threshold:
			node = node.Left
		default:
			node = node.Right
		}
	}
	return node.Probas
}

func intLabels(y []float64) ([]int, error) {
	out := make([]int, len(y))
	for i, v := range y {
		if math.IsNaN(v) || v != math.Trunc(v) {
			return nil, errors.New("dtree: class labels must be integral")
		}
		out[i] = int(v)
	}
	return out, nil
}

func allIntLike(vals []float64) bool {
	for _, v := range vals {
		if math.IsInf(v, 0) {
			return false
		}
		if _, frac := math.Modf(math.Abs(v)); frac > 1e-9 && frac < 1-1e-9 {
			return false
		}
	}
	return true
}

func addCounts(dst, src []int) {
	for c := range src {
		dst[c] += src[c]
	}
}

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// classIndex returns the index of label in classes.
func classIndex(label int, classes []int) int {
	i := sort.SearchInts(classes, label)
	if i < len(classes) && classes[i] == label {
		return i
	}
	return 0
}
