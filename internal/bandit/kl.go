package bandit

import "math"

const (
	// klClamp keeps KL arguments away from 0 and 1 so the logarithms stay finite.
	klClamp = 1e-8

	// DefaultKLC is the c in the KL-UCB budget ln t + c ln ln t.
	DefaultKLC = 3.0

	// DefaultKLIterations is the fixed number of bisection steps. Ten steps
	// resolve the index to 2^-10 of the initial interval width.
	DefaultKLIterations = 10
)

// BernoulliKL returns the Kullback-Leibler divergence between Bernoulli(p)
// and Bernoulli(q). Both arguments are clamped to [1e-8, 1-1e-8].
func BernoulliKL(p, q float64) float64 {
	p = clampUnit(p)
	q = clampUnit(q)
	return p*math.Log(p/q) + (1-p)*math.Log((1-p)/(1-q))
}

// KLUCBIndex returns the largest q in [mean, 1] with
// n*KL(mean, q) <= ln(t) + c*ln(ln(t)), found by a fixed number of bisection
// steps. It always returns a value in [mean, 1].
func KLUCBIndex(mean float64, n, t int, c float64, iterations int) float64 {
	if mean >= 1 {
		return 1
	}
	lnT := math.Log(float64(t))
	budget := lnT + c*math.Log(lnT)

	lo, hi := mean, 1.0
	for i := 0; i < iterations; i++ {
		q := (lo + hi) / 2
		if float64(n)*BernoulliKL(mean, q) <= budget {
			lo = q
		} else {
			hi = q
		}
	}
	return (lo + hi) / 2
}

func clampUnit(x float64) float64 {
	return math.Min(math.Max(x, klClamp), 1-klClamp)
}
