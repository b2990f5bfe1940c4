// Package hparams declares hyperparameter search spaces and the tuned
// parameter maps read back from tuning results.
package hparams

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Kind is the distribution a Dimension draws from.
type Kind string

const (
	Choice      Kind = "choice"
	Uniform     Kind = "uniform"
	QUniform    Kind = "quniform"    // integer, uniform then rounded to Q
	LogUniform  Kind = "loguniform"  // exp(uniform(Low, High))
	QLogUniform Kind = "qloguniform" // integer, loguniform then rounded to Q
	LogNormal   Kind = "lognormal"   // exp(normal(Low, High)); Low is mu, High sigma
)

var ErrInvalidSpace = errors.New("invalid hyperparameter space")

// Dimension is one named hyperparameter. Low and High are in log space for
// the log kinds, mirroring how the bounds are usually written.
type Dimension struct {
	Name    string
	Kind    Kind
	Low     float64
	High    float64
	Q       float64
	Options []any
}

func (d Dimension) String() string {
	switch d.Kind {
	case Choice:
		opts := make([]string, len(d.Options))
		for i, o := range d.Options {
			opts[i] = fmt.Sprint(o)
		}
		return fmt.Sprintf("%s: choice(%s)", d.Name, strings.Join(opts, ", "))
	case QUniform, QLogUniform:
		return fmt.Sprintf("%s: %s(%g, %g, q=%g)", d.Name, d.Kind, d.Low, d.High, d.Q)
	default:
		return fmt.Sprintf("%s: %s(%g, %g)", d.Name, d.Kind, d.Low, d.High)
	}
}

func (d Dimension) validate() error {
	switch d.Kind {
	case Choice:
		if len(d.Options) == 0 {
			return fmt.Errorf("%w: %s has no options", ErrInvalidSpace, d.Name)
		}
		return nil
	case LogNormal:
		if d.High <= 0 {
			return fmt.Errorf("%w: %s sigma must be positive", ErrInvalidSpace, d.Name)
		}
		return nil
	case Uniform, LogUniform:
	case QUniform, QLogUniform:
		if d.Q <= 0 {
			return fmt.Errorf("%w: %s needs a positive q", ErrInvalidSpace, d.Name)
		}
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidSpace, d.Name, d.Kind)
	}
	if d.Low > d.High {
		return fmt.Errorf("%w: %s low > high", ErrInvalidSpace, d.Name)
	}
	return nil
}

func (d Dimension) sample(rng *rand.Rand) any {
	u := func() float64 { return d.Low + rng.Float64()*(d.High-d.Low) }
	switch d.Kind {
	case Choice:
		return d.Options[rng.Intn(len(d.Options))]
	case Uniform:
		return u()
	case QUniform:
		return int(math.Round(u()/d.Q) * d.Q)
	case LogUniform:
		return math.Exp(u())
	case QLogUniform:
		return int(math.Round(math.Exp(u())/d.Q) * d.Q)
	case LogNormal:
		return math.Exp(d.Low + rng.NormFloat64()*d.High)
	}
	return nil
}

// Space is the set of dimensions a model is tuned over.
type Space []Dimension

func (s Space) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, d := range s {
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate dimension %s", ErrInvalidSpace, d.Name)
		}
		seen[d.Name] = true
		if err := d.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sample draws one configuration.
func (s Space) Sample(rng *rand.Rand) Params {
	p := make(Params, len(s))
	for _, d := range s {
		p[d.Name] = d.sample(rng)
	}
	return p
}

// Params maps hyperparameter names to values. Values decoded from JSON carry
// numbers as float64; the getters convert.
type Params map[string]any

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("hparams: %s: want number, got %T", name, v)
}

func (p Params) Int(name string, def int) (int, error) {
	if _, ok := p[name]; !ok {
		return def, nil
	}
	f, err := p.Float(name, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("hparams: %s: want integer, got %g", name, f)
	}
	return int(f), nil
}

func (p Params) String(name string, def string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("hparams: %s: want string, got %T", name, v)
	}
	return s, nil
}

func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("hparams: %s: want bool, got %T", name, v)
	}
	return b, nil
}
