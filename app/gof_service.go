package app

import (
	"fmt"
	"math"
	"sync"

	"gofit/adapters/cache"
	"gofit/adapters/stats/engine"
	"gofit/adapters/stats/statistic"
	"gofit/adapters/stats/transform"
	"gofit/domain/core"
	"gofit/domain/gof"
	"gofit/internal"
	"gofit/internal/config"
	"gofit/internal/errors"
	"gofit/ports"
)

// SimpleTest runs a goodness-of-fit test: the sample is mapped through the
// reference CDF, reduced to a statistic, and the statistic is turned into a
// p-value by the engine. A truncated series is not an error: the result is
// marked LowConfidence and carries the warning.
func SimpleTest(
	data []float64,
	dist ports.ReferenceDistribution,
	stat ports.StatisticFunc,
	eng ports.DistributionEngine,
	assumeSorted bool,
	opts ...transform.Option,
) (gof.Result, error) {
	if stat == nil || eng == nil {
		return gof.Result{}, core.NewDomainError("statistic and engine are required")
	}

	sample, err := transform.Apply(data, dist, assumeSorted, opts...)
	if err != nil {
		return gof.Result{}, err
	}

	value, err := stat(sample)
	if err != nil {
		return gof.Result{}, err
	}
	if math.IsNaN(value) {
		return gof.Result{}, core.NewNumericalError("statistic", value)
	}

	p, err := eng.SurvivalFunction(value, sample.Len())
	if core.IsFatal(err) {
		return gof.Result{}, err
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return gof.Result{}, core.NewNumericalError(eng.Name()+" p-value", p)
	}

	return gof.Result{
		Kind:          gof.KindCustom,
		Statistic:     value,
		PValue:        p,
		SampleSize:    sample.Len(),
		LowConfidence: err != nil,
		Warning:       err,
	}, nil
}

// Test is a goodness-of-fit test defined by a statistic and the engine for
// its null distribution
type Test struct {
	Kind      gof.StatisticKind
	Statistic ports.StatisticFunc
	Engine    ports.DistributionEngine

	transformOpts []transform.Option
}

// Run applies the test to a sample
func (t Test) Run(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	res, err := SimpleTest(data, dist, t.Statistic, t.Engine, assumeSorted, t.transformOpts...)
	if err != nil {
		return gof.Result{}, err
	}
	if t.Kind != "" {
		res.Kind = t.Kind
	}
	return res, nil
}

// GofService bundles the three built-in tests around one configuration and
// one shared table cache
type GofService struct {
	config *config.Config
	logger *internal.Logger
	cache  *cache.SizeCache

	ks  *engine.KSEngine
	cvm *engine.CvMEngine
	ad  *engine.ADEngine

	tests map[gof.StatisticKind]Test
}

// NewGofService creates the service. With Runtime.ValidateEngines set, the
// KS regime crossover and the monotonicity of every engine are checked
// before the service is returned.
func NewGofService(cfg *config.Config) (*GofService, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Runtime.LogLevel)).WithComponent("gof")
	tables, err := cache.NewSizeCache(cfg.Runtime.CacheSize)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{engine.WithCache(tables), engine.WithLogger(logger)}
	s := &GofService{
		config: cfg,
		logger: logger,
		cache:  tables,
		ks:     engine.NewKSEngine(engine.KSOptionsFromConfig(cfg), opts...),
		cvm:    engine.NewCvMEngine(engine.CvMOptionsFromConfig(cfg), opts...),
		ad:     engine.NewADEngine(engine.ADOptionsFromConfig(cfg), opts...),
	}

	tol := []transform.Option{transform.WithTolerance(cfg.Transform.CDFTolerance)}
	s.tests = map[gof.StatisticKind]Test{
		gof.KindSupremum:  {Kind: gof.KindSupremum, Statistic: statistic.Supremum, Engine: s.ks, transformOpts: tol},
		gof.KindQuadratic: {Kind: gof.KindQuadratic, Statistic: statistic.Quadratic, Engine: s.cvm, transformOpts: tol},
		gof.KindWeighted:  {Kind: gof.KindWeighted, Statistic: statistic.Weighted, Engine: s.ad, transformOpts: tol},
	}

	if cfg.Runtime.ValidateEngines {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("engine validation failed: %w", err)
		}
	}

	logger.Debug("service ready (cache size %d, KS exact below n=%d)", cfg.Runtime.CacheSize, cfg.KS.ExactThreshold)
	return s, nil
}

// validationSizes are the sample sizes Validate checks monotonicity for
var validationSizes = []int{1, 2, 5, 20, 100, 1000}

// Validate checks the KS regime crossover and the range and monotonicity
// of every engine on a grid of statistic values
func (s *GofService) Validate() error {
	if err := s.ks.ValidateCrossover(); err != nil {
		return err
	}
	grids := map[ports.DistributionEngine][]float64{
		s.ks:  engine.Grid(0, 1, 201),
		s.cvm: engine.Grid(0, 2, 201),
		s.ad:  engine.Grid(0, 12, 201),
	}
	for e, grid := range grids {
		for _, n := range validationSizes {
			if err := engine.ValidateMonotone(e, n, grid); err != nil {
				return err
			}
		}
	}
	s.logger.Info("engines validated for n in %v", validationSizes)
	return nil
}

// Test returns the built-in test for a statistic kind
func (s *GofService) Test(kind gof.StatisticKind) (Test, error) {
	t, ok := s.tests[kind]
	if !ok {
		return Test{}, core.NewDomainError("no built-in test for statistic kind %q", kind)
	}
	return t, nil
}

// KS runs the Kolmogorov-Smirnov test
func (s *GofService) KS(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	return s.run(gof.KindSupremum, data, dist, assumeSorted)
}

// CvM runs the Cramer-von Mises test
func (s *GofService) CvM(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	return s.run(gof.KindQuadratic, data, dist, assumeSorted)
}

// AD runs the Anderson-Darling test
func (s *GofService) AD(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	return s.run(gof.KindWeighted, data, dist, assumeSorted)
}

func (s *GofService) run(kind gof.StatisticKind, data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	t, err := s.Test(kind)
	if err != nil {
		return gof.Result{}, err
	}
	res, err := t.Run(data, dist, assumeSorted)
	if err != nil {
		return gof.Result{}, err
	}
	if res.LowConfidence {
		s.logger.Warn("%s result has low confidence: %v", kind, res.Warning)
	}
	return res, nil
}

// Cache returns the table cache shared by the service's engines
func (s *GofService) Cache() *cache.SizeCache {
	return s.cache
}

// Config returns the service configuration
func (s *GofService) Config() *config.Config {
	return s.config
}

var (
	defaultOnce    sync.Once
	defaultService *GofService
)

// DefaultService returns the process-wide service built from the
// environment. An invalid environment falls back to the built-in defaults.
func DefaultService() *GofService {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			internal.DefaultLogger.Warn("gof: %s: %v; using default configuration", errors.GetCode(err), err)
			cfg = config.Default()
		}
		svc, err := NewGofService(cfg)
		if err != nil {
			internal.DefaultLogger.Error("gof: %v; using default configuration", err)
			cfg = config.Default()
			cfg.Runtime.ValidateEngines = false
			svc, _ = NewGofService(cfg)
		}
		defaultService = svc
	})
	return defaultService
}

// KSTest runs the Kolmogorov-Smirnov test with the default service
func KSTest(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	return DefaultService().KS(data, dist, assumeSorted)
}

// CvMTest runs the Cramer-von Mises test with the default service
func CvMTest(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	return DefaultService().CvM(data, dist, assumeSorted)
}

// ADTest runs the Anderson-Darling test with the default service
func ADTest(data []float64, dist ports.ReferenceDistribution, assumeSorted bool) (gof.Result, error) {
	return DefaultService().AD(data, dist, assumeSorted)
}
