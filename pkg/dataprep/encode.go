package dataprep

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnseenLabel is returned when a label encoder meets a class it was not fitted on.
var ErrUnseenLabel = errors.New("dataprep: unseen label")

// LabelEncoder maps class names to 0..n-1 in sorted order.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// Fit learns the sorted set of classes.
func (e *LabelEncoder) Fit(values []string) *LabelEncoder {
	e.index = uniqueIndex(values)
	e.Classes = make([]string, 0, len(e.index))
	for v := range e.index {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
	for i, v := range e.Classes {
		e.index[v] = i
	}
	return e
}

// Transform encodes values. Unknown classes fail with ErrUnseenLabel.
func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.index[v]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnseenLabel, v)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// OrdinalEncoder maps categories to integers in order of first appearance.
// Unseen or missing categories encode as -1.
type OrdinalEncoder struct {
	index map[string]int
}

func (e *OrdinalEncoder) Fit(values []string) *OrdinalEncoder {
	e.index = make(map[string]int)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := e.index[v]; !ok {
			e.index[v] = len(e.index)
		}
	}
	return e
}

func (e *OrdinalEncoder) Transform(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.index[v]
		if !ok {
			code = -1
		}
		out[i] = float64(code)
	}
	return out
}

// OneHotEncoder expands a category into one indicator column per known value.
// Unseen or missing categories encode as all zeros.
type OneHotEncoder struct {
	Categories []string
	index      map[string]int
}

func (e *OneHotEncoder) Fit(values []string) *OneHotEncoder {
	e.Categories = e.Categories[:0]
	for v := range uniqueIndex(values) {
		e.Categories = append(e.Categories, v)
	}
	sort.Strings(e.Categories)
	e.index = make(map[string]int, len(e.Categories))
	for i, v := range e.Categories {
		e.index[v] = i
	}
	return e
}

func (e *OneHotEncoder) Transform(values []string) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		vec := make([]float64, len(e.Categories))
		if j, ok := e.index[v]; ok {
			vec[j] = 1
		}
		out[i] = vec
	}
	return out
}

// FeatureNames returns one "<prefix>=<category>" name per indicator column.
func (e *OneHotEncoder) FeatureNames(prefix string) []string {
	out := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		out[i] = prefix + "=" + c
	}
	return out
}

func uniqueIndex(values []string) map[string]int {
	unique := map[string]int{}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := unique[v]; !ok {
			unique[v] = len(unique)
		}
	}
	return unique
}
