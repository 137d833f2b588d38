package calculation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogSum_Smooth(t *testing.T) {
	v := []float64{1.0, 2.0, 0.5}
	prob := make([]float64, 3)
	sigma := 0.435

	ls := LogSum(v, prob, sigma)

	// smoothing lifts the logsum above the hard maximum
	assert.Greater(t, ls, 2.0)

	var sum float64
	for i, p := range prob {
		assert.Greater(t, p, 0.0, "choice %d", i)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	// the best choice carries the most mass
	assert.Greater(t, prob[1], prob[0])
	assert.Greater(t, prob[0], prob[2])
}

func TestLogSum_Degenerate(t *testing.T) {
	v := []float64{1.0, 2.0, 0.5}
	prob := make([]float64, 3)

	ls := LogSum(v, prob, 0)
	assert.Equal(t, 2.0, ls)
	assert.Equal(t, []float64{0, 1, 0}, prob)

	ls = LogSum(v, prob, 1e-11)
	assert.Equal(t, 2.0, ls)
	assert.Equal(t, []float64{0, 1, 0}, prob)
}

func TestLogSum_DegenerateTieBreak(t *testing.T) {
	v := []float64{3.0, 3.0}
	prob := make([]float64, 2)

	ls := LogSum(v, prob, 0)
	assert.Equal(t, 3.0, ls)
	// ties go to the first-listed choice
	assert.Equal(t, []float64{1, 0}, prob)
}

func TestLogSum_SmoothApproachesMax(t *testing.T) {
	v := []float64{1.0, 2.0}
	prob := make([]float64, 2)

	ls := LogSum(v, prob, 1e-3)
	assert.InDelta(t, 2.0, ls, 1e-6)
	assert.InDelta(t, 1.0, prob[1], 1e-6)
	assert.False(t, math.IsNaN(prob[0]))
}
