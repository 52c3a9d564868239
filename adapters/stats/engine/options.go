package engine

import (
	"gofit/adapters/cache"
	"gofit/internal"
	"gofit/internal/config"
	"gofit/ports"
)

// SeriesOptions is the stopping rule shared by every infinite series: stop
// once two successive terms are within Tolerance of the running sum, or
// after MaxTerms terms with a convergence warning.
type SeriesOptions struct {
	Tolerance float64
	MaxTerms  int
}

// DefaultSeriesOptions returns the built-in stopping rule
func DefaultSeriesOptions() SeriesOptions {
	return SeriesOptions{Tolerance: 1e-10, MaxTerms: 100}
}

// KSOptions configures the Kolmogorov-Smirnov engine regimes
type KSOptions struct {
	Series SeriesOptions

	// ExactThreshold is the smallest n handled by the asymptotic regime
	ExactThreshold int

	// DurbinMaxSamples bounds the n for which the Durbin matrix and the
	// Smirnov sum are still used inside the asymptotic regime
	DurbinMaxSamples int

	// TailLambda is the scaled statistic sqrt(n)*d where the Pelz-Good
	// series hands over to the spliced upper-tail form
	TailLambda float64

	// CrossoverTolerance bounds the disagreement accepted by ValidateCrossover
	CrossoverTolerance float64
}

// DefaultKSOptions returns the built-in KS regime boundaries
func DefaultKSOptions() KSOptions {
	return KSOptions{
		Series:             DefaultSeriesOptions(),
		ExactThreshold:     150,
		DurbinMaxSamples:   100000,
		TailLambda:         1.5,
		CrossoverTolerance: 1e-3,
	}
}

// CvMOptions configures the Cramer-von Mises engine
type CvMOptions struct {
	Series SeriesOptions

	// FirstOrderCorrection adds the 1/n term of the finite-sample expansion
	// to the limiting distribution
	FirstOrderCorrection bool

	// QuadratureNodes is the Gauss-Legendre order used for Bessel K
	QuadratureNodes int
}

// DefaultCvMOptions returns the built-in CvM settings
func DefaultCvMOptions() CvMOptions {
	return CvMOptions{
		Series:               DefaultSeriesOptions(),
		FirstOrderCorrection: true,
		QuadratureNodes:      128,
	}
}

// ADOptions configures the Anderson-Darling engine
type ADOptions struct {
	Series SeriesOptions

	// TailStart is the statistic value from which the limiting survival is
	// taken from the asymptotic tail instead of 1 - CDF. Up to about 22 the
	// series still leaves the survival several correct digits.
	TailStart float64
}

// DefaultADOptions returns the built-in AD settings
func DefaultADOptions() ADOptions {
	return ADOptions{
		Series:    DefaultSeriesOptions(),
		TailStart: 20,
	}
}

// KSOptionsFromConfig maps the loaded configuration onto KSOptions
func KSOptionsFromConfig(cfg *config.Config) KSOptions {
	return KSOptions{
		Series:             seriesFromConfig(cfg),
		ExactThreshold:     cfg.KS.ExactThreshold,
		DurbinMaxSamples:   cfg.KS.DurbinMaxSamples,
		TailLambda:         cfg.KS.TailLambda,
		CrossoverTolerance: cfg.KS.CrossoverTolerance,
	}
}

// CvMOptionsFromConfig maps the loaded configuration onto CvMOptions
func CvMOptionsFromConfig(cfg *config.Config) CvMOptions {
	opts := DefaultCvMOptions()
	opts.Series = seriesFromConfig(cfg)
	opts.FirstOrderCorrection = cfg.CvM.FirstOrderCorrection
	return opts
}

// ADOptionsFromConfig maps the loaded configuration onto ADOptions
func ADOptionsFromConfig(cfg *config.Config) ADOptions {
	return ADOptions{
		Series:    seriesFromConfig(cfg),
		TailStart: cfg.AD.TailStart,
	}
}

func seriesFromConfig(cfg *config.Config) SeriesOptions {
	return SeriesOptions{Tolerance: cfg.Series.Tolerance, MaxTerms: cfg.Series.MaxTerms}
}

// shared holds the collaborators common to every engine
type shared struct {
	cache  ports.TableCache
	logger ports.Logger
}

// Option configures an engine's collaborators
type Option func(*shared)

// WithCache replaces the process-wide table cache
func WithCache(c ports.TableCache) Option {
	return func(s *shared) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger replaces the default leveled logger
func WithLogger(l ports.Logger) Option {
	return func(s *shared) {
		if l != nil {
			s.logger = l
		}
	}
}

// defaultCache is shared by engines built without WithCache. Keys are
// namespaced by engine name so one cache serves all three engines.
var defaultCache = cache.MustNewSizeCache(cache.DefaultSize)

func newShared(opts []Option) shared {
	s := shared{
		cache:  defaultCache,
		logger: internal.DefaultLogger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
