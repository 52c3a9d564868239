package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// logFactorials returns ln(i!) for i = 0..n
func logFactorials(n int) []float64 {
	lf := make([]float64, n+1)
	for i := range lf {
		lf[i], _ = math.Lgamma(float64(i + 1))
	}
	return lf
}

// smirnovSF returns the exact one-sided survival P(D+_n >= d) of Birnbaum
// and Tingey,
//
//	d Σ_{j=0}^{⌊n(1-d)⌋} C(n, j) (1-d-j/n)^{n-j} (d+j/n)^{j-1},
//
// summed in log space. lf must hold ln(i!) for i = 0..n.
func smirnovSF(lf []float64, n int, d float64) float64 {
	fn := float64(n)
	jmax := int(math.Floor(fn * (1 - d)))
	logTerms := make([]float64, 0, jmax+1)
	for j := 0; j <= jmax; j++ {
		fj := float64(j)
		a := 1 - d - fj/fn
		if a <= 0 {
			continue
		}
		logTerms = append(logTerms, lf[n]-lf[j]-lf[n-j]+(fn-fj)*math.Log(a)+(fj-1)*math.Log(d+fj/fn))
	}
	if len(logTerms) == 0 {
		return 0
	}
	return d * math.Exp(floats.LogSumExp(logTerms))
}

// kolmogorovSF returns the limiting survival of sqrt(n) D_n at lambda,
// 2 Σ_{k>=1} (-1)^{k-1} e^{-2k²λ²}.
func kolmogorovSF(lambda float64, opts SeriesOptions) (float64, error) {
	l2 := -2 * lambda * lambda
	sum, err := sumSeries("kolmogorov", opts, 1, 0, func(k int) float64 {
		fk := float64(k)
		term := math.Exp(l2 * fk * fk)
		if k%2 == 0 {
			return -term
		}
		return term
	})
	return 2 * sum, err
}
