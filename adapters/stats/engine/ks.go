package engine

import (
	"fmt"
	"math"

	"gofit/domain/core"
	"gofit/ports"
)

const (
	// exactSwitchTail is the Durbin survival below which the exact regime
	// switches to the doubled one-sided sum, which has no cancellation there
	exactSwitchTail = 1e-5

	// durbinExactLimit bounds n·d² for the Durbin matrix in the exact regime
	durbinExactLimit = 7.0

	// durbinAsymptoticLimit bounds n·d^1.5 for the Durbin matrix in the
	// asymptotic regime
	durbinAsymptoticLimit = 1.4
)

// KSEngine is the null distribution of the Kolmogorov-Smirnov statistic D_n.
//
// For n below ExactThreshold the distribution is exact: Durbin's matrix
// formula in the body and twice the one-sided Smirnov sum in the upper
// tail. From ExactThreshold on, the Durbin matrix still covers small n·d^1.5
// (up to DurbinMaxSamples), the Pelz-Good expansion covers the body, and
// from sqrt(n)·d = TailLambda the upper tail follows the Smirnov (or, for
// very large n, Kolmogorov) shape scaled to meet Pelz-Good continuously.
type KSEngine struct {
	opts      KSOptions
	shared    shared
	namespace string
}

// ksTable holds everything the KS engine precomputes for one n
type ksTable struct {
	logFact []float64

	// floor is the Durbin CDF at the Durbin/Pelz-Good boundary
	floor float64

	// tailStart is the d where the spliced tail begins; tailScale matches
	// the tail shape to Pelz-Good there
	tailStart float64
	tailScale float64
	warning   error
}

// NewKSEngine creates a KS engine
func NewKSEngine(opts KSOptions, options ...Option) *KSEngine {
	opts = opts.normalized()
	return &KSEngine{
		opts:   opts,
		shared: newShared(options),
		namespace: fmt.Sprintf("ks-unif/%d/%d/%g/%g/%d",
			opts.ExactThreshold, opts.DurbinMaxSamples, opts.TailLambda, opts.Series.Tolerance, opts.Series.MaxTerms),
	}
}

func (o KSOptions) normalized() KSOptions {
	def := DefaultKSOptions()
	o.Series = o.Series.normalized()
	if o.ExactThreshold < 1 {
		o.ExactThreshold = def.ExactThreshold
	}
	if o.DurbinMaxSamples < o.ExactThreshold {
		o.DurbinMaxSamples = o.ExactThreshold
	}
	if !(o.TailLambda > 0) {
		o.TailLambda = def.TailLambda
	}
	if !(o.CrossoverTolerance > 0) {
		o.CrossoverTolerance = def.CrossoverTolerance
	}
	return o
}

// Name returns the engine name
func (e *KSEngine) Name() string {
	return "ks-unif"
}

// Options returns the effective options
func (e *KSEngine) Options() KSOptions {
	return e.opts
}

// CDF returns P(D_n <= d)
func (e *KSEngine) CDF(d float64, n int) (float64, error) {
	p, err := e.distribution(d, n)
	return finish("ks cdf", p.cdf(), err)
}

// SurvivalFunction returns the p-value P(D_n >= d)
func (e *KSEngine) SurvivalFunction(d float64, n int) (float64, error) {
	p, err := e.distribution(d, n)
	return finish("ks survival", p.sf(), err)
}

func (e *KSEngine) distribution(d float64, n int) (tailProbability, error) {
	if err := checkArgs(d, n); err != nil {
		return tailProbability{}, err
	}

	fn := float64(n)
	switch {
	case d <= 1/(2*fn):
		return lowerTail(0), nil
	case d >= 1:
		return upperTail(0), nil
	case d <= 1/fn:
		lf, _ := math.Lgamma(fn + 1)
		return lowerTail(math.Exp(lf + fn*math.Log(2*d-1/fn))), nil
	case d >= 1-1/fn:
		return upperTail(math.Min(1, 2*math.Pow(1-d, fn))), nil
	}

	tab, err := e.table(n)
	if err != nil {
		return tailProbability{}, err
	}
	var (
		p    tailProbability
		warn error
	)
	if n < e.opts.ExactThreshold {
		p = e.exact(tab, n, d)
	} else {
		p, warn = e.asymptotic(tab, n, d)
	}
	if warn != nil && !core.IsFatal(warn) {
		e.shared.logger.Warn("ks-unif: d=%g n=%d: %v", d, n, warn)
	}
	return p, warn
}

// exact evaluates the finite-sample distribution for 1/n < d < 1-1/n
func (e *KSEngine) exact(tab *ksTable, n int, d float64) tailProbability {
	if float64(n)*d*d < durbinExactLimit {
		c := durbinCDF(n, d)
		if 1-c > exactSwitchTail {
			return lowerTail(c)
		}
	}
	return upperTail(math.Min(1, 2*smirnovSF(tab.logFact, n, d)))
}

func (e *KSEngine) asymptotic(tab *ksTable, n int, d float64) (tailProbability, error) {
	fn := float64(n)
	withDurbin := n < e.opts.DurbinMaxSamples

	if withDurbin && fn*math.Pow(d, 1.5) < durbinAsymptoticLimit {
		return lowerTail(durbinCDF(n, d)), nil
	}
	if d < tab.tailStart {
		c, err := pelzGoodCDF(n, d, e.opts.Series)
		if core.IsFatal(err) {
			return tailProbability{}, err
		}
		if withDurbin {
			c = math.Max(c, tab.floor)
		}
		return lowerTail(c), err
	}

	t, err := e.tailShape(tab, n, d)
	if core.IsFatal(err) {
		return tailProbability{}, err
	}
	return upperTail(math.Min(1, t*tab.tailScale)), firstWarning(err, tab.warning)
}

// tailShape is the upper-tail form the spliced tail is scaled from
func (e *KSEngine) tailShape(tab *ksTable, n int, d float64) (float64, error) {
	if n < e.opts.DurbinMaxSamples {
		return 2 * smirnovSF(tab.logFact, n, d), nil
	}
	return kolmogorovSF(d*math.Sqrt(float64(n)), e.opts.Series)
}

func (e *KSEngine) table(n int) (*ksTable, error) {
	v, err := e.shared.cache.Get(e.namespace, n, e.buildTable)
	if err != nil {
		return nil, err
	}
	tab, ok := v.(*ksTable)
	if !ok {
		return nil, fmt.Errorf("unexpected type in ks table cache: got %T", v)
	}
	return tab, nil
}

func (e *KSEngine) buildTable(n int) (interface{}, error) {
	fn := float64(n)
	tab := &ksTable{tailStart: math.Inf(1), tailScale: 1}
	if n < e.opts.DurbinMaxSamples {
		tab.logFact = logFactorials(n)
	}
	if n < e.opts.ExactThreshold {
		e.shared.logger.Debug("ks-unif: built exact table for n=%d", n)
		return tab, nil
	}

	if n < e.opts.DurbinMaxSamples {
		if ds := math.Pow(durbinAsymptoticLimit/fn, 2.0/3); ds > 1/fn && ds < 1-1/fn {
			tab.floor = durbinCDF(n, ds)
		}
	}

	start := e.opts.TailLambda / math.Sqrt(fn)
	if start < 1-1/fn {
		c, err := pelzGoodCDF(n, start, e.opts.Series)
		if core.IsFatal(err) {
			return nil, err
		}
		shape, shapeErr := e.tailShape(tab, n, start)
		if core.IsFatal(shapeErr) {
			return nil, shapeErr
		}
		if shape > 0 {
			tab.tailStart = start
			tab.tailScale = clamp01(1-c) / shape
		}
		tab.warning = firstWarning(err, shapeErr)
	}
	e.shared.logger.Debug("ks-unif: built asymptotic table for n=%d (tail from d=%g, scale %g)", n, tab.tailStart, tab.tailScale)
	return tab, nil
}

// ValidateCrossover compares the exact and asymptotic regimes at
// n = ExactThreshold and fails with a numerical error when they disagree
// by more than CrossoverTolerance anywhere on a grid of d.
func (e *KSEngine) ValidateCrossover() error {
	n := e.opts.ExactThreshold
	fn := float64(n)
	tab, err := e.table(n)
	if err != nil {
		return err
	}
	if tab.logFact == nil {
		withFact := *tab
		withFact.logFact = logFactorials(n)
		tab = &withFact
	}

	worst, worstD := 0.0, 0.0
	for _, d := range Grid(1/fn, 1-1/fn, 400) {
		if d <= 1/fn || d >= 1-1/fn {
			continue
		}
		exact := e.exact(tab, n, d).sf()
		asym, err := e.asymptotic(tab, n, d)
		if core.IsFatal(err) {
			return err
		}
		if diff := math.Abs(exact - asym.sf()); diff > worst {
			worst, worstD = diff, d
		}
	}
	if worst > e.opts.CrossoverTolerance {
		return fmt.Errorf("%w: ks regimes differ by %g at n=%d, d=%g (tolerance %g)",
			core.ErrNumerical, worst, n, worstD, e.opts.CrossoverTolerance)
	}
	e.shared.logger.Debug("ks-unif: crossover at n=%d agrees within %g", n, worst)
	return nil
}

var (
	_ ports.DistributionEngine = (*KSEngine)(nil)
	_ ports.CDFEvaluator       = (*KSEngine)(nil)
)
