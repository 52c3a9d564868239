package engine

import (
	"fmt"
	"math"

	"gofit/domain/core"
	"gofit/ports"
)

// cvmCertain is the W² value from which the CDF is reported as exactly 1.
// The limiting survival there is about 4e-23, and 1 - CDF stops resolving
// survivals near 1e-16 from about W² = 7; p-values lose relative precision
// from about W² = 5.
const cvmCertain = 10

// CvMEngine is the null distribution of the Cramer-von Mises statistic W².
//
// It is the least accurate of the three engines and is meant for moderate
// and large n. The body is the limiting distribution of Anderson and
// Darling, optionally with the first 1/n term of the finite-sample
// expansion. The exact lower tail of Csörgő and Faraway covers
// W² <= 1/(12n) + 1/(4n²), and also bounds the body from below.
type CvMEngine struct {
	opts   CvMOptions
	shared shared
	bessel *besselK
	fix    firstOrderTerms
}

// cvmTable holds the per-n constants of the exact lower tail
type cvmTable struct {
	logCoef     float64 // ln(n! / Γ(n/2 + 1))
	boundary    float64
	boundaryCDF float64
}

// NewCvMEngine creates a CvM engine
func NewCvMEngine(opts CvMOptions, options ...Option) *CvMEngine {
	opts = opts.normalized()
	return &CvMEngine{
		opts:   opts,
		shared: newShared(options),
		bessel: newBesselK(opts.QuadratureNodes),
		fix:    newFirstOrderTerms(),
	}
}

func (o CvMOptions) normalized() CvMOptions {
	o.Series = o.Series.normalized()
	if o.QuadratureNodes < 16 {
		o.QuadratureNodes = DefaultCvMOptions().QuadratureNodes
	}
	return o
}

// Name returns the engine name
func (e *CvMEngine) Name() string {
	return "cvm-unif"
}

// Options returns the effective options
func (e *CvMEngine) Options() CvMOptions {
	return e.opts
}

// SurvivalFunction returns the p-value P(W² >= s), derived from CDF
func (e *CvMEngine) SurvivalFunction(s float64, n int) (float64, error) {
	return SurvivalFromCDF(e).SurvivalFunction(s, n)
}

// CDF returns P(W² <= s)
func (e *CvMEngine) CDF(s float64, n int) (float64, error) {
	if err := checkArgs(s, n); err != nil {
		return math.NaN(), err
	}

	fn := float64(n)
	low := 1 / (12 * fn)
	switch {
	case s <= low:
		return 0, nil
	case s >= fn/3:
		return 1, nil
	}

	tab, err := e.table(n)
	if err != nil {
		return math.NaN(), err
	}
	if s <= tab.boundary {
		return finish("cvm exact tail", clamp01(math.Exp(tab.logCoef+fn/2*math.Log(math.Pi*(s-low)))), nil)
	}
	if s >= cvmCertain {
		return 1, nil
	}

	p, err := e.limitCDF(s)
	if core.IsFatal(err) {
		return math.NaN(), err
	}
	if e.opts.FirstOrderCorrection {
		p += e.firstOrder(s, p) / fn
	}
	if err != nil {
		e.shared.logger.Warn("cvm-unif: s=%g n=%d: %v", s, n, err)
	}
	return finish("cvm cdf", clamp01(math.Max(p, tab.boundaryCDF)), err)
}

// LimitCDF returns the limiting (n → ∞) distribution of W² at s
func (e *CvMEngine) LimitCDF(s float64) (float64, error) {
	if math.IsNaN(s) {
		return math.NaN(), core.NewDomainError("statistic is NaN")
	}
	if s <= 0 {
		return 0, nil
	}
	if s >= cvmCertain {
		return 1, nil
	}
	p, err := e.limitCDF(s)
	return finish("cvm limit", clamp01(p), err)
}

// limitCDF sums the Anderson-Darling (1952) series
//
//	(1/√s) Σ_k Γ(k+½)/(Γ(k+1) π^{3/2}) √(4k+1) e^{-a_k} K_{1/4}(a_k),
//
// with a_k = (4k+1)²/(16s).
func (e *CvMEngine) limitCDF(s float64) (float64, error) {
	sum, err := sumSeries("cvm-limit", e.opts.Series, 0, 0, func(k int) float64 {
		fk := float64(k)
		a := (4*fk + 1) * (4*fk + 1) / (16 * s)
		lg1, _ := math.Lgamma(fk + 0.5)
		lg2, _ := math.Lgamma(fk + 1)
		coef := math.Sqrt(4*fk+1) * math.Exp(lg1-lg2) / (math.Pi * math.SqrtPi)
		return coef * e.bessel.damped(0.25, a)
	})
	return sum / math.Sqrt(s), err
}

// firstOrderTerms holds the constants of the 1/n term of the finite-sample
// expansion (Csörgő and Faraway, eq. 1.10)
type firstOrderTerms struct {
	args [3][firstOrderLen]float64
	csa  [3][firstOrderLen]float64
	csb  [3][firstOrderLen]float64
}

const firstOrderLen = 21

var (
	firstOrderShift = [3]float64{0.5, 1, 1.5}
	firstOrderGamma = [3]float64{0.5, 1.5, 2.5}
	firstOrderA     = [3]float64{7, 16, 7}
	firstOrderB     = [3]float64{1, 0, 24}
)

func newFirstOrderTerms() firstOrderTerms {
	var f firstOrderTerms
	for v := 0; v < 3; v++ {
		for k := 0; k < firstOrderLen; k++ {
			fk := float64(k)
			arg := 4*(fk+firstOrderShift[v]) - 1
			arg = arg * arg / 16
			dens := 72 * math.Pi * math.SqrtPi * math.Gamma(fk+1)
			f.args[v][k] = arg
			f.csa[v][k] = math.Pow(arg, 0.75) * math.Gamma(fk+1.5) / dens
			f.csb[v][k] = math.Pow(arg, 1.25) * math.Gamma(fk+firstOrderGamma[v]) / dens
		}
	}
	return f
}

// firstOrder returns the coefficient of 1/n in the expansion of the CDF,
// given the limiting CDF value limit at s
func (e *CvMEngine) firstOrder(s, limit float64) float64 {
	var a, b float64
	for v := 0; v < 3; v++ {
		var sa, sb float64
		for k := 0; k < firstOrderLen; k++ {
			x := e.fix.args[v][k] / s
			k25 := e.bessel.damped(0.25, x)
			k75 := e.bessel.damped(0.75, x)
			sa += e.fix.csa[v][k] * (k25 + k75)
			if firstOrderB[v] != 0 {
				k125 := e.bessel.damped(1.25, x)
				sb += e.fix.csb[v][k] * (2*k25 + 3*k75 - k125)
			}
		}
		a += firstOrderA[v] * sa
		b += firstOrderB[v] * sb
	}
	return limit/12 - a/math.Pow(s, 1.5) - b/math.Pow(s, 2.5)
}

func (e *CvMEngine) table(n int) (*cvmTable, error) {
	v, err := e.shared.cache.Get(e.Name(), n, e.buildTable)
	if err != nil {
		return nil, err
	}
	tab, ok := v.(*cvmTable)
	if !ok {
		return nil, fmt.Errorf("unexpected type in cvm table cache: got %T", v)
	}
	return tab, nil
}

func (e *CvMEngine) buildTable(n int) (interface{}, error) {
	fn := float64(n)
	lg1, _ := math.Lgamma(fn + 1)
	lg2, _ := math.Lgamma(fn/2 + 1)
	tab := &cvmTable{
		logCoef:  lg1 - lg2,
		boundary: 1/(12*fn) + 1/(4*fn*fn),
	}
	tab.boundaryCDF = clamp01(math.Exp(tab.logCoef + fn/2*math.Log(math.Pi/(4*fn*fn))))
	e.shared.logger.Debug("cvm-unif: built table for n=%d", n)
	return tab, nil
}

var (
	_ ports.DistributionEngine = (*CvMEngine)(nil)
	_ ports.CDFEvaluator       = (*CvMEngine)(nil)
)
