package loader

import (
	"math"
	"math/rand"
)

// TrainTestSplit assigns n rows to a train and a test partition by random
// permutation. The test partition holds ceil(n*testRatio) rows. A nil rng
// uses the global, unseeded source.
func TrainTestSplit(n int, testRatio float64, rng *rand.Rand) (trainIdx, testIdx []int) {
	var indices []int
	if rng != nil {
		indices = rng.Perm(n)
	} else {
		indices = rand.Perm(n)
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	nTest = min(max(nTest, 0), n)
	return indices[nTest:], indices[:nTest]
}
