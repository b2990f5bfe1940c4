package data

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seismicSample = `% seismic bumps excerpt
@relation seismic-bumps

@attribute seismic {a,b,c,d}
@attribute 'genergy' numeric
@attribute shift {W, N}
@attribute class {1,0}

@data
a,15180,N,0
b,?,W,1
'c',3040,N,0
`

func TestReadARFF(t *testing.T) {
	f, err := ReadARFF(strings.NewReader(seismicSample))
	require.NoError(t, err)

	assert.Equal(t, []string{"seismic", "genergy", "shift", "class"}, f.Names())
	assert.Equal(t, 3, f.NRows())

	s, _ := f.Column("seismic")
	assert.Equal(t, []string{"a", "b", "c"}, s.Str)

	g, _ := f.Column("genergy")
	require.Equal(t, Numeric, g.Kind)
	assert.Equal(t, 15180.0, g.Num[0])
	assert.True(t, math.IsNaN(g.Num[1]))

	class, _ := f.Column("class")
	assert.Equal(t, Categorical, class.Kind)
}

func TestReadARFFErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no attributes", "@relation r\n@data\n1\n"},
		{"no rows", "@relation r\n@attribute a numeric\n@data\n"},
		{"bad type", "@relation r\n@attribute a date\n@data\n1\n"},
		{"width", "@relation r\n@attribute a numeric\n@data\n1,2\n"},
		{"quote", "@relation r\n@attribute a string\n@data\n'open\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadARFF(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
