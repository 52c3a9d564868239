package statistic

import (
	"fmt"
	"math"

	"gofit/domain/core"
	"gofit/domain/gof"
)

// Weighted computes the Anderson-Darling statistic
// A² = -n - (1/n) Σ (2i-1)(ln F_i + ln(1 - F_{n+1-i})).
//
// 1 - F comes from sample.Complement, so distributions with a direct
// survival function keep their upper-tail precision. A transformed value
// of exactly 0 or 1 makes A² infinite and is reported as ErrDegenerateTail.
func Weighted(sample gof.TransformedSample) (float64, error) {
	n := sample.Len()
	if n == 0 {
		return math.NaN(), core.ErrEmptySample
	}

	sum := 0.0
	for i, u := range sample.Values {
		c := sample.Complement(n - 1 - i)
		if u <= 0 || c <= 0 {
			return math.NaN(), fmt.Errorf("%w: transformed value %d is %g (complement %g)", core.ErrDegenerateTail, i, u, c)
		}
		sum += float64(2*i+1) * (math.Log(u) + math.Log(c))
	}

	fn := float64(n)
	return -fn - sum/fn, nil
}
