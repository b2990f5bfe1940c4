// Package dataset describes the benchmark datasets and fetches them into a
// local working directory.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"tabbench/pkg/data"
	"tabbench/pkg/model"
)

// Task is the kind of prediction a dataset poses.
type Task string

const (
	Classification Task = "classification"
	Regression     Task = "regression"
)

var (
	ErrDownload = errors.New("dataset download failed")
	ErrParse    = errors.New("dataset parse failed")
	ErrUnknown  = errors.New("unknown dataset")
)

// Resource is one remote file and the name it is stored under locally.
type Resource struct {
	URL      string
	Filename string
}

// Split is a feature table with one label per row.
type Split struct {
	Features *data.Frame
	Labels   []float64
}

// Len returns the number of rows.
func (s Split) Len() int { return len(s.Labels) }

// Parsed is what a Spec's parser produces: either a single labelled table,
// split later by the Provider, or a ready-made train/test pair.
type Parsed struct {
	Data        *Split
	Train, Test *Split
}

// Spec describes a dataset. It is stateless and safe to share.
type Spec struct {
	Name        string
	Task        Task
	Metric      string
	Categorical []string
	Resources   []Resource
	Parse       func(dir string) (Parsed, error)
}

// Maximize reports whether larger metric values are better.
func (s Spec) Maximize() bool {
	m, err := model.LookupMetric(s.Metric)
	return err == nil && m.Maximize
}

// labelsOf reads a label column as floats. Categorical columns must hold
// numeric strings.
func labelsOf(c *data.Column) ([]float64, error) {
	if c.Kind == data.Categorical {
		var err error
		if c, err = c.ToNumeric(); err != nil {
			return nil, err
		}
	}
	for i, v := range c.Num {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("label %q missing in row %d", c.Name, i)
		}
	}
	return c.Num, nil
}

// lastColumnLabel splits off the final column of f as the label.
func lastColumnLabel(f *data.Frame) (*Split, error) {
	if f.NCols() < 2 {
		return nil, fmt.Errorf("want at least 2 columns, got %d", f.NCols())
	}
	label := f.Columns[f.NCols()-1]
	y, err := labelsOf(label)
	if err != nil {
		return nil, err
	}
	return &Split{Features: f.Drop(label.Name), Labels: y}, nil
}

// namedLabel splits off the column called name as the label.
func namedLabel(f *data.Frame, name string) (*Split, error) {
	label, rest, err := f.Pop(name)
	if err != nil {
		return nil, err
	}
	y, err := labelsOf(label)
	if err != nil {
		return nil, err
	}
	return &Split{Features: rest, Labels: y}, nil
}
