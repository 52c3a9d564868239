// Package engine converts goodness-of-fit statistics into p-values. Each
// engine evaluates the null distribution of one statistic for a given
// sample size n:
//
//   - KSEngine: Kolmogorov-Smirnov D, exact for small n (precise)
//   - CvMEngine: Cramer-von Mises W², limiting law plus a 1/n term (crude)
//   - ADEngine: Anderson-Darling A², limiting law plus an n-correction (fair)
//
// Per-n tables live in an injectable ports.TableCache.
package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gofit/domain/core"
	"gofit/ports"
)

// MonotoneSlack is the absolute increase of a survival function along a
// grid that ValidateMonotone still accepts as rounding
const MonotoneSlack = 1e-9

// tailProbability carries whichever side of a probability was computed
// directly, so that the other side is only formed by one subtraction.
type tailProbability struct {
	value float64
	upper bool
}

func lowerTail(p float64) tailProbability { return tailProbability{value: p} }
func upperTail(p float64) tailProbability { return tailProbability{value: p, upper: true} }

func (p tailProbability) cdf() float64 {
	if p.upper {
		return clamp01(1 - p.value)
	}
	return clamp01(p.value)
}

func (p tailProbability) sf() float64 {
	if p.upper {
		return clamp01(p.value)
	}
	return clamp01(1 - p.value)
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// checkArgs validates the (t, n) pair every engine receives
func checkArgs(t float64, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d", core.ErrInvalidSampleSize, n)
	}
	if math.IsNaN(t) {
		return core.NewDomainError("statistic is NaN")
	}
	return nil
}

// finish rejects NaN results and passes warnings through with the value
func finish(where string, p float64, err error) (float64, error) {
	if core.IsFatal(err) {
		return math.NaN(), err
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return math.NaN(), core.NewNumericalError(where, p)
	}
	return p, err
}

// complement derives the survival function of a CDF-only engine
type complement struct {
	ports.CDFEvaluator
}

// SurvivalFromCDF adapts an engine that only evaluates its CDF into a
// ports.DistributionEngine
func SurvivalFromCDF(ev ports.CDFEvaluator) ports.DistributionEngine {
	return complement{ev}
}

func (c complement) SurvivalFunction(t float64, n int) (float64, error) {
	p, err := c.CDF(t, n)
	if core.IsFatal(err) {
		return math.NaN(), err
	}
	return finish(c.Name()+" survival", clamp01(1-p), err)
}

// lowerComplement derives the CDF of a survival-only engine
type lowerComplement struct {
	ports.DistributionEngine
}

// CDFFromSurvival adapts a ports.DistributionEngine into a ports.CDFEvaluator
func CDFFromSurvival(e ports.DistributionEngine) ports.CDFEvaluator {
	return lowerComplement{e}
}

func (c lowerComplement) CDF(t float64, n int) (float64, error) {
	p, err := c.SurvivalFunction(t, n)
	if core.IsFatal(err) {
		return math.NaN(), err
	}
	return finish(c.Name()+" cdf", clamp01(1-p), err)
}

// ValidateMonotone evaluates e over an ascending grid of statistic values
// and fails with a numerical error if a value leaves [0, 1] or the survival
// function increases by more than MonotoneSlack.
func ValidateMonotone(e ports.DistributionEngine, n int, grid []float64) error {
	prev := math.Inf(1)
	prevT := math.Inf(-1)
	for _, t := range grid {
		if t < prevT {
			return core.NewDomainError("validation grid not ascending at %g", t)
		}
		p, err := e.SurvivalFunction(t, n)
		if core.IsFatal(err) {
			return err
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s survival(%g, %d) = %g outside [0, 1]", core.ErrNumerical, e.Name(), t, n, p)
		}
		if p > prev+MonotoneSlack {
			return fmt.Errorf("%w: %s survival increases from %g to %g at t=%g, n=%d",
				core.ErrNumerical, e.Name(), prev, p, t, n)
		}
		prev, prevT = p, t
	}
	return nil
}

// Grid returns count points evenly spaced over [lo, hi]
func Grid(lo, hi float64, count int) []float64 {
	if count < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, count), lo, hi)
}

var (
	_ ports.DistributionEngine = complement{}
	_ ports.CDFEvaluator       = lowerComplement{}
)
