package data

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tells how the values of a column are stored.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// ErrMalformed is returned when raw input cannot be turned into a Frame.
var ErrMalformed = errors.New("data: malformed input")

// Column is a single named column. Numeric columns keep missing values as NaN,
// categorical columns keep them as the empty string.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Str  []string
}

// NewNumeric creates a numeric column.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Num: values}
}

// NewCategorical creates a categorical column.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Str: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Str)
	}
	return len(c.Num)
}

// ToNumeric parses a categorical column into a numeric one. Empty values become NaN.
func (c *Column) ToNumeric() (*Column, error) {
	if c.Kind == Numeric {
		return c, nil
	}
	out := make([]float64, len(c.Str))
	for i, s := range c.Str {
		if s == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %v", ErrMalformed, c.Name, i, err)
		}
		out[i] = v
	}
	return NewNumeric(c.Name, out), nil
}

func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Categorical {
		out.Str = make([]string, len(idx))
		for i, j := range idx {
			out.Str[i] = c.Str[j]
		}
		return out
	}
	out.Num = make([]float64, len(idx))
	for i, j := range idx {
		out.Num[i] = c.Num[j]
	}
	return out
}

// Frame is an in-memory table made of equally sized columns.
type Frame struct {
	Columns []*Column
}

// NewFrame checks that the columns have unique names and the same length.
func NewFrame(cols ...*Column) (*Frame, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrMalformed, c.Name, c.Len(), cols[0].Len())
		}
	}
	return &Frame{Columns: cols}, nil
}

// NRows returns the number of rows.
func (f *Frame) NRows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return f.Columns[0].Len()
}

// NCols returns the number of columns.
func (f *Frame) NCols() int { return len(f.Columns) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Take returns a new frame holding the given rows, in the given order.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]*Column, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = c.take(idx)
	}
	return &Frame{Columns: cols}
}

// Drop returns a frame without the named columns.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(f.Columns))
	for _, c := range f.Columns {
		if _, ok := skip[c.Name]; !ok {
			cols = append(cols, c)
		}
	}
	return &Frame{Columns: cols}
}

// Pop separates the named column from the rest of the frame.
func (f *Frame) Pop(name string) (*Column, *Frame, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no column %q", ErrMalformed, name)
	}
	return c, f.Drop(name), nil
}

// Rename assigns new names to all columns, in order.
func (f *Frame) Rename(names []string) error {
	if len(names) != len(f.Columns) {
		return fmt.Errorf("%w: %d names for %d columns", ErrMalformed, len(names), len(f.Columns))
	}
	for i, c := range f.Columns {
		c.Name = names[i]
	}
	return nil
}

// FromRecords builds a frame from string records. A column is numeric when every
// non-missing value parses as a float; otherwise it is kept categorical.
func FromRecords(names []string, records [][]string, missing []string) (*Frame, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrMalformed)
	}
	width := len(records[0])
	if names == nil {
		names = make([]string, width)
		for j := range names {
			names[j] = strconv.Itoa(j)
		}
	}
	if len(names) != width {
		return nil, fmt.Errorf("%w: %d names for %d fields", ErrMalformed, len(names), width)
	}
	isMissing := make(map[string]struct{}, len(missing))
	for _, m := range missing {
		isMissing[m] = struct{}{}
	}
	for i, rec := range records {
		if len(rec) != width {
			return nil, fmt.Errorf("%w: record %d has %d fields, want %d", ErrMalformed, i, len(rec), width)
		}
	}

	cols := make([]*Column, width)
	for j := 0; j < width; j++ {
		raw := make([]string, len(records))
		numeric := true
		for i, rec := range records {
			v := strings.TrimSpace(rec[j])
			if _, ok := isMissing[v]; ok {
				v = ""
			}
			raw[i] = v
			if v == "" || !numeric {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
		}
		col := NewCategorical(names[j], raw)
		if numeric {
			var err error
			if col, err = col.ToNumeric(); err != nil {
				return nil, err
			}
		}
		cols[j] = col
	}
	return NewFrame(cols...)
}
