package statistic

import (
	"math"

	"gofit/domain/core"
	"gofit/domain/gof"
)

// Supremum computes the Kolmogorov-Smirnov statistic
// D = max_i max(i/n - F_i, F_i - (i-1)/n) in one scan.
func Supremum(sample gof.TransformedSample) (float64, error) {
	n := sample.Len()
	if n == 0 {
		return math.NaN(), core.ErrEmptySample
	}

	fn := float64(n)
	d := 0.0
	for i, u := range sample.Values {
		if plus := float64(i+1)/fn - u; plus > d {
			d = plus
		}
		if minus := u - float64(i)/fn; minus > d {
			d = minus
		}
	}
	return d, nil
}
