package statistic

import (
	"math"

	"gofit/domain/core"
	"gofit/domain/gof"
)

// Quadratic computes the Cramer-von Mises statistic
// W² = 1/(12n) + Σ (F_i - (2i-1)/(2n))².
func Quadratic(sample gof.TransformedSample) (float64, error) {
	n := sample.Len()
	if n == 0 {
		return math.NaN(), core.ErrEmptySample
	}

	twoN := 2 * float64(n)
	sum := 1 / (6 * twoN)
	for i, u := range sample.Values {
		dev := u - float64(2*i+1)/twoN
		sum += dev * dev
	}
	return sum, nil
}
