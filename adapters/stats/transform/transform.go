package transform

import (
	"fmt"
	"math"
	"sort"

	"gofit/domain/core"
	"gofit/domain/gof"
	"gofit/ports"
)

// DefaultTolerance is how far a reference CDF may stray outside [0, 1], or
// decrease between sorted sample points, before the input is rejected
const DefaultTolerance = 1e-9

type options struct {
	tolerance float64
}

// Option configures Apply
type Option func(*options)

// WithTolerance overrides DefaultTolerance
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol >= 0 && !math.IsNaN(tol) {
			o.tolerance = tol
		}
	}
}

// Apply maps a sample through the reference CDF, producing the sorted
// sequence that is uniform on [0, 1] under the null hypothesis. The caller's
// slice is never modified. When dist also implements
// ports.SurvivalDistribution the upper-tail values are evaluated directly.
func Apply(sample []float64, dist ports.ReferenceDistribution, assumeSorted bool, opts ...Option) (gof.TransformedSample, error) {
	o := options{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	if len(sample) == 0 {
		return gof.TransformedSample{}, core.ErrEmptySample
	}
	if dist == nil {
		return gof.TransformedSample{}, core.NewDomainError("reference distribution is nil")
	}

	xs := make([]float64, len(sample))
	copy(xs, sample)
	for i, x := range xs {
		if math.IsNaN(x) {
			return gof.TransformedSample{}, fmt.Errorf("%w: position %d", core.ErrNonFiniteSample, i)
		}
	}
	if !assumeSorted {
		sort.Float64s(xs)
	}

	values := make([]float64, len(xs))
	for i, x := range xs {
		v, err := checkProbability(dist.CDF(x), x, o.tolerance)
		if err != nil {
			return gof.TransformedSample{}, err
		}
		if i > 0 && v < values[i-1] {
			if values[i-1]-v > o.tolerance {
				return gof.TransformedSample{}, fmt.Errorf("%w: F(%g) = %g after %g", core.ErrCDFNotMonotone, x, v, values[i-1])
			}
			v = values[i-1]
		}
		values[i] = v
	}

	sd, ok := dist.(ports.SurvivalDistribution)
	if !ok {
		return gof.NewTransformedSample(values)
	}

	upper := make([]float64, len(xs))
	for i, x := range xs {
		s, err := checkProbability(sd.Survival(x), x, o.tolerance)
		if err != nil {
			return gof.TransformedSample{}, fmt.Errorf("survival: %w", err)
		}
		if i > 0 && s > upper[i-1] {
			if s-upper[i-1] > o.tolerance {
				return gof.TransformedSample{}, fmt.Errorf("%w: survival at %g = %g after %g", core.ErrCDFNotMonotone, x, s, upper[i-1])
			}
			s = upper[i-1]
		}
		upper[i] = s
	}
	return gof.NewTransformedSampleWithSurvival(values, upper)
}

// checkProbability clamps p into [0, 1] when it is within tol of the interval
func checkProbability(p, x, tol float64) (float64, error) {
	switch {
	case math.IsNaN(p):
		return 0, core.NewNumericalError(fmt.Sprintf("reference CDF at %g", x), p)
	case p < -tol || p > 1+tol:
		return 0, core.NewCDFOutOfRangeError(x, p)
	case p < 0:
		return 0, nil
	case p > 1:
		return 1, nil
	}
	return p, nil
}
