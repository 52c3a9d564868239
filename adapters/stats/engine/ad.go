package engine

import (
	"math"
	"sync"

	"gofit/domain/core"
	"gofit/ports"
)

// ADEngine is the null distribution of the Anderson-Darling statistic A².
//
// The limiting distribution is Marsaglia's exact series; from TailStart on
// its survival comes from the asymptotic tail sqrt(3/π)·z^{-1/2}·e^{-z},
// with a 1/z term fitted so it meets the series. Finite n uses Marsaglia's error correction, re-anchored so the
// correction vanishes at both ends of the distribution. n = 1 is exact.
type ADEngine struct {
	opts   ADOptions
	shared shared

	tailOnce sync.Once
	tailCorr float64
	tailErr  error
}

// NewADEngine creates an AD engine
func NewADEngine(opts ADOptions, options ...Option) *ADEngine {
	return &ADEngine{
		opts:   opts.normalized(),
		shared: newShared(options),
	}
}

func (o ADOptions) normalized() ADOptions {
	o.Series = o.Series.normalized()
	if !(o.TailStart >= 8 && o.TailStart <= 22) {
		o.TailStart = DefaultADOptions().TailStart
	}
	return o
}

// Name returns the engine name
func (e *ADEngine) Name() string {
	return "ad-unif"
}

// Options returns the effective options
func (e *ADEngine) Options() ADOptions {
	return e.opts
}

// CDF returns P(A² <= z)
func (e *ADEngine) CDF(z float64, n int) (float64, error) {
	p, err := e.distribution(z, n)
	return finish("ad cdf", p.cdf(), err)
}

// SurvivalFunction returns the p-value P(A² >= z)
func (e *ADEngine) SurvivalFunction(z float64, n int) (float64, error) {
	p, err := e.distribution(z, n)
	return finish("ad survival", p.sf(), err)
}

// LimitSurvival returns the limiting (n → ∞) survival of A² at z
func (e *ADEngine) LimitSurvival(z float64) (float64, error) {
	if math.IsNaN(z) {
		return math.NaN(), core.NewDomainError("statistic is NaN")
	}
	if z <= 0 {
		return 1, nil
	}
	if math.IsInf(z, 1) {
		return 0, nil
	}
	u, err := e.limitSF(z)
	return finish("ad limit", clamp01(u), err)
}

func (e *ADEngine) distribution(z float64, n int) (tailProbability, error) {
	if err := checkArgs(z, n); err != nil {
		return tailProbability{}, err
	}
	switch {
	case z <= 0:
		return lowerTail(0), nil
	case math.IsInf(z, 1):
		return upperTail(0), nil
	case n == 1:
		return adSingle(z), nil
	}

	u, err := e.limitSF(z)
	if core.IsFatal(err) {
		return tailProbability{}, err
	}
	if err != nil {
		e.shared.logger.Warn("ad-unif: z=%g n=%d: %v", z, n, err)
	}
	return adFiniteSample(u, n), err
}

// adSingle is the exact distribution for n = 1, where
// P(A² <= z) = sqrt(1 - 4e^{-1-z}) above ln 4 - 1
func adSingle(z float64) tailProbability {
	if z <= math.Ln2*2-1 {
		return lowerTail(0)
	}
	y := 4 * math.Exp(-1-z)
	return upperTail(y / (1 + math.Sqrt(1-y)))
}

// adFiniteSample applies Marsaglia's finite-n error correction to the
// limiting survival u. Above a limiting CDF of 0.8 the correction is a
// polynomial in u itself, so small p-values keep full relative precision.
func adFiniteSample(u float64, n int) tailProbability {
	fn := float64(n)
	p := 1 - u
	c := 0.01265 + 0.1757/fn
	switch {
	case p < c:
		return lowerTail(p + ((0.0037/fn+0.00078)/fn+0.00006)/fn*adG1(p/c))
	case p < 0.8:
		x := (p - c) / (0.8 - c)
		return lowerTail(p + (0.01365/fn+0.04213)/fn*(adG2(x)-adG2(0)))
	default:
		return upperTail(u - adG3Shift(u)/fn)
	}
}

func adG1(x float64) float64 {
	return math.Sqrt(x) * (1 - x) * (49*x - 102)
}

func adG2(x float64) float64 {
	return -0.00022633 + (6.54034-(14.6538-(14.458-(8.259-1.91864*x)*x)*x)*x)*x
}

// adG3 holds Marsaglia's correction polynomial for the upper range,
// g3(x) = Σ adG3[i] x^i in the limiting CDF x
var adG3 = [...]float64{-130.2137, 745.2337, -1705.091, 1950.646, -1116.36, 255.7844}

// adG3Coeffs are the coefficients of g3(1-u) - g3(1) as a polynomial in u,
// lowest degree first, starting at u¹
var adG3Coeffs = shiftedCorrection(adG3[:])

func shiftedCorrection(c []float64) []float64 {
	out := make([]float64, len(c)-1)
	for j := 1; j < len(c); j++ {
		sum := 0.0
		binom := 1.0 // C(i, j), starting at i = j
		for i := j; i < len(c); i++ {
			sum += c[i] * binom
			binom = binom * float64(i+1) / float64(i+1-j)
		}
		if j%2 == 1 {
			sum = -sum
		}
		out[j-1] = sum
	}
	return out
}

func adG3Shift(u float64) float64 {
	acc := 0.0
	for i := len(adG3Coeffs) - 1; i >= 0; i-- {
		acc = acc*u + adG3Coeffs[i]
	}
	return acc * u
}

// limitSF returns the limiting survival of A² at z > 0
func (e *ADEngine) limitSF(z float64) (float64, error) {
	if z >= e.opts.TailStart {
		corr, err := e.tailSplice()
		if core.IsFatal(err) {
			return math.NaN(), err
		}
		return adTail(z, corr), err
	}
	cdf, err := e.limitCDF(z)
	if core.IsFatal(err) {
		return math.NaN(), err
	}
	return clamp01(1 - cdf), err
}

// tailSplice fits the 1/z coefficient of adTail to the series at TailStart
func (e *ADEngine) tailSplice() (float64, error) {
	e.tailOnce.Do(func() {
		start := e.opts.TailStart
		cdf, err := e.limitCDF(start)
		if core.IsFatal(err) {
			e.tailErr = err
			return
		}
		e.tailCorr = start * ((1-cdf)/adTail(start, 0) - 1)
		e.tailErr = err
		e.shared.logger.Debug("ad-unif: tail from z=%g with 1/z coefficient %g", start, e.tailCorr)
	})
	return e.tailCorr, e.tailErr
}

// adTailConst is sqrt(3/π). Far in the tail A² behaves like Z²/2 for the
// first component, and the remaining weights 1/(j(j+1)) multiply the
// chi-square tail by Π_{j>=2} (1 - 2/(j(j+1)))^{-1/2} = sqrt(3).
var adTailConst = math.Sqrt(3 / math.Pi)

// adTail is the asymptotic limiting survival adTailConst·e^{-z}/√z·(1 + corr/z)
func adTail(z, corr float64) float64 {
	return adTailConst * math.Exp(-z) / math.Sqrt(z) * (1 + corr/z)
}

// limitCDF is Marsaglia's exact series for the limiting CDF,
// (1/z) Σ_j C(-1/2, j) (4j+1) f_j(z)
func (e *ADEngine) limitCDF(z float64) (float64, error) {
	if z < 0.01 {
		return 0, nil
	}

	var inner error
	f := func(j int) float64 {
		v, err := e.adf(z, j)
		inner = firstWarning(inner, err)
		return v
	}

	r := 1 / z
	sum, err := sumSeries("ad-limit", e.opts.Series, 1, r*f(0), func(j int) float64 {
		fj := float64(j)
		r *= (0.5 - fj) / fj
		return (4*fj + 1) * r * f(j)
	})
	return sum, firstWarning(err, inner)
}

// adf evaluates f_j(z) by the three-term recurrence for the terms of its
// power series in z
func (e *ADEngine) adf(z float64, j int) (float64, error) {
	fj := float64(4*j + 1)
	t := fj * fj * 1.23370055013617 / z
	if t > 150 {
		return 0, nil
	}

	a := 2.22144146907918 * math.Exp(-t) / math.Sqrt(t)
	b := 3.93740248643060 * math.Erfc(math.Sqrt(t))
	r := z * 0.125
	return sumSeries("ad-term", e.opts.Series, 1, a+b*r, func(i int) float64 {
		fi := float64(i)
		c := ((fi-0.5-t)*b + t*a) / fi
		a, b = b, c
		r *= z / (8*fi + 8)
		return c * r
	})
}

var (
	_ ports.DistributionEngine = (*ADEngine)(nil)
	_ ports.CDFEvaluator       = (*ADEngine)(nil)
)
