package loader

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrainTestSplitPartitions(t *testing.T) {
	train, test := TrainTestSplit(1000, 0.25, nil)

	assert.Len(t, train, 750)
	assert.Len(t, test, 250)

	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}
}

func TestTrainTestSplitRoundsUp(t *testing.T) {
	train, test := TrainTestSplit(690, 0.25, nil)
	assert.Len(t, test, 173)
	assert.Len(t, train, 517)
}

func TestTrainTestSplitSeeded(t *testing.T) {
	_, a := TrainTestSplit(50, 0.2, rand.New(rand.NewSource(7)))
	_, b := TrainTestSplit(50, 0.2, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestTrainTestSplitBounds(t *testing.T) {
	train, test := TrainTestSplit(4, 1.5, nil)
	assert.Empty(t, train)
	assert.Len(t, test, 4)

	train, test = TrainTestSplit(0, 0.25, nil)
	assert.Empty(t, train)
	assert.Empty(t, test)
}
