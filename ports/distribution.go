package ports

import (
	"gofit/domain/gof"
)

// ReferenceDistribution is the hypothesized, fully specified continuous
// distribution. gonum's distuv types satisfy it.
type ReferenceDistribution interface {
	// CDF evaluates P(X <= x)
	CDF(x float64) float64
}

// SurvivalDistribution is implemented by reference distributions that can
// evaluate 1 - CDF directly, which keeps precision near the upper tail
type SurvivalDistribution interface {
	ReferenceDistribution

	// Survival evaluates P(X > x)
	Survival(x float64) float64
}

// StatisticFunc computes a goodness-of-fit statistic from a transformed sample
type StatisticFunc func(sample gof.TransformedSample) (float64, error)

// CDFEvaluator is the minimal statistic-distribution capability: the
// distribution of a statistic under the null for sample size n
type CDFEvaluator interface {
	// Name identifies the distribution (also used as cache namespace)
	Name() string

	// CDF returns P(T <= t) for sample size n
	CDF(t float64, n int) (float64, error)
}

// DistributionEngine converts a statistic value into a p-value.
//
// SurvivalFunction must return a value in [0, 1] that is non-increasing in t
// for fixed n. A non-nil *core.ConvergenceWarning may accompany a usable
// value; any other error means the value must not be used.
type DistributionEngine interface {
	Name() string

	// SurvivalFunction returns P(T > t) for sample size n
	SurvivalFunction(t float64, n int) (float64, error)
}

// TableCache memoizes per-sample-size tables for distribution engines.
// Build runs at most once per (namespace, n) while the entry is resident.
type TableCache interface {
	Get(namespace string, n int, build func(n int) (interface{}, error)) (interface{}, error)
}

// Logger is the leveled logging capability used by engines and services
type Logger interface {
	Warn(format string, args ...interface{})
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
}
