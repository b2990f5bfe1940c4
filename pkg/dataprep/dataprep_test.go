package dataprep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoder(t *testing.T) {
	e := new(LabelEncoder).Fit([]string{">50K", "<=50K", ">50K"})
	assert.Equal(t, []string{"<=50K", ">50K"}, e.Classes)

	got, err := e.Transform([]string{">50K", "<=50K"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, got)

	_, err = e.Transform([]string{">50K."})
	assert.ErrorIs(t, err, ErrUnseenLabel)
}

func TestOrdinalEncoder(t *testing.T) {
	e := new(OrdinalEncoder).Fit([]string{"b", "a", "", "b"})
	assert.Equal(t, []float64{0, 1, -1, -1}, e.Transform([]string{"b", "a", "", "z"}))
}

func TestOneHotEncoder(t *testing.T) {
	e := new(OneHotEncoder).Fit([]string{"Private", "State-gov", "", "Private"})
	assert.Equal(t, []string{"wc=Private", "wc=State-gov"}, e.FeatureNames("wc"))
	assert.Equal(t, [][]float64{{0, 1}, {0, 0}, {1, 0}}, e.Transform([]string{"State-gov", "Never-worked", "Private"}))
}

func TestMeanImputer(t *testing.T) {
	m := &MeanImputer{}
	_, err := m.Transform([][]float64{{1}})
	require.Error(t, err)

	require.NoError(t, m.Fit([][]float64{{1, math.NaN()}, {3, math.NaN()}, {math.NaN(), math.NaN()}}))
	out, err := m.Transform([][]float64{{math.NaN(), math.NaN()}, {5, 1}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 0}, {5, 1}}, out)
}

func TestPolynomial(t *testing.T) {
	out, err := (&Polynomial{Degree: 2}).Transform([][]float64{{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 3, 4, 6, 9}}, out)

	in := [][]float64{{2, 3}}
	out, err = (&Polynomial{Degree: 1}).Transform(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
