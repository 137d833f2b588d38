package calculation

import "math"

// sigmaDegenerate is the taste-shock scale below which the logsum collapses
// to a hard maximum.
const sigmaDegenerate = 1e-10

// LogSum computes the expected maximum over the choice-specific values v
// under extreme-value taste shocks with scale sigma and writes the choice
// probabilities into prob. len(prob) must equal len(v). At or below the
// degeneracy threshold the hard maximum is returned and all probability mass
// goes to the first maximizing choice.
func LogSum(v, prob []float64, sigma float64) float64 {
	mx := v[0]
	for _, x := range v[1:] {
		if x > mx {
			mx = x
		}
	}

	if math.Abs(sigma) <= sigmaDegenerate {
		for i := range prob {
			prob[i] = 0
		}
		for i, x := range v {
			if x >= mx {
				prob[i] = 1
				break
			}
		}
		return mx
	}

	var sum float64
	for _, x := range v {
		sum += math.Exp((x - mx) / sigma)
	}
	ls := mx + sigma*math.Log(sum)
	for i, x := range v {
		prob[i] = math.Exp((x - ls) / sigma)
	}
	return ls
}
