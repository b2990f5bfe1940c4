// Package adapter turns dataset splits into model-ready matrices and builds
// estimators from tuned hyperparameters.
package adapter

import (
	"fmt"
	"math"

	"tabbench/pkg/data"
	"tabbench/pkg/dataprep"
	"tabbench/pkg/dataset"
)

// Encoding selects how declared categorical columns are expanded.
type Encoding int

const (
	OneHot Encoding = iota
	Ordinal
)

func (e Encoding) String() string {
	if e == Ordinal {
		return "ordinal"
	}
	return "onehot"
}

// Data is a dense feature matrix with its labels.
type Data struct {
	X        [][]float64
	Y        []float64
	Features []string
}

// NFeatures returns the width of X.
func (d Data) NFeatures() int { return len(d.Features) }

// columnEncoder turns one frame column into one or more feature columns.
type columnEncoder struct {
	source string
	names  []string
	encode func(c *data.Column) ([][]float64, error) // column-major
}

// Prepare encodes train and test identically, fitting every encoder on train.
// Numeric columns keep their values with NaN replaced by the train mean.
// Declared categorical string columns are one-hot or ordinal encoded per enc;
// remaining string columns are ordinal encoded. Unseen categories become all
// zeros (one-hot) or -1 (ordinal).
func Prepare(train, test dataset.Split, categorical []string, enc Encoding) (Data, Data, error) {
	if train.Features == nil || test.Features == nil {
		return Data{}, Data{}, fmt.Errorf("adapter: split without features")
	}
	declared := make(map[string]bool, len(categorical))
	for _, c := range categorical {
		declared[c] = true
	}

	var encoders []columnEncoder
	var features []string
	for _, col := range train.Features.Columns {
		ce := newColumnEncoder(col, declared[col.Name] && enc == OneHot)
		encoders = append(encoders, ce)
		features = append(features, ce.names...)
	}

	trainX, err := encodeFrame(train.Features, encoders, len(features))
	if err != nil {
		return Data{}, Data{}, fmt.Errorf("adapter: train: %w", err)
	}
	testX, err := encodeFrame(test.Features, encoders, len(features))
	if err != nil {
		return Data{}, Data{}, fmt.Errorf("adapter: test: %w", err)
	}

	imputer := &dataprep.MeanImputer{}
	if err := imputer.Fit(trainX); err != nil {
		return Data{}, Data{}, fmt.Errorf("adapter: %w", err)
	}
	if trainX, err = imputer.Transform(trainX); err != nil {
		return Data{}, Data{}, fmt.Errorf("adapter: %w", err)
	}
	if testX, err = imputer.Transform(testX); err != nil {
		return Data{}, Data{}, fmt.Errorf("adapter: %w", err)
	}

	return Data{X: trainX, Y: train.Labels, Features: features},
		Data{X: testX, Y: test.Labels, Features: features}, nil
}

func newColumnEncoder(col *data.Column, oneHot bool) columnEncoder {
	name := col.Name
	if col.Kind == data.Numeric {
		return columnEncoder{
			source: name,
			names:  []string{name},
			encode: func(c *data.Column) ([][]float64, error) {
				if c.Kind != data.Numeric {
					var err error
					if c, err = c.ToNumeric(); err != nil {
						return nil, err
					}
				}
				return [][]float64{c.Num}, nil
			},
		}
	}
	if oneHot {
		ohe := new(dataprep.OneHotEncoder).Fit(col.Str)
		return columnEncoder{
			source: name,
			names:  ohe.FeatureNames(name),
			encode: func(c *data.Column) ([][]float64, error) {
				rows := ohe.Transform(stringsOf(c))
				cols := make([][]float64, len(ohe.Categories))
				for j := range cols {
					cols[j] = make([]float64, len(rows))
					for i := range rows {
						cols[j][i] = rows[i][j]
					}
				}
				return cols, nil
			},
		}
	}
	oe := new(dataprep.OrdinalEncoder).Fit(col.Str)
	return columnEncoder{
		source: name,
		names:  []string{name},
		encode: func(c *data.Column) ([][]float64, error) {
			return [][]float64{oe.Transform(stringsOf(c))}, nil
		},
	}
}

// stringsOf views any column as strings; numbers are formatted with %g.
func stringsOf(c *data.Column) []string {
	if c.Kind == data.Categorical {
		return c.Str
	}
	out := make([]string, len(c.Num))
	for i, v := range c.Num {
		if !math.IsNaN(v) {
			out[i] = fmt.Sprintf("%g", v)
		}
	}
	return out
}

func encodeFrame(f *data.Frame, encoders []columnEncoder, width int) ([][]float64, error) {
	n := f.NRows()
	X := make([][]float64, n)
	for i := range X {
		X[i] = make([]float64, 0, width)
	}
	for _, ce := range encoders {
		col, ok := f.Column(ce.source)
		if !ok {
			return nil, fmt.Errorf("missing column %q", ce.source)
		}
		cols, err := ce.encode(col)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", ce.source, err)
		}
		for _, vals := range cols {
			for i := range X {
				X[i] = append(X[i], vals[i])
			}
		}
	}
	return X, nil
}
