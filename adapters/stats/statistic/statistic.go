// Package statistic holds the goodness-of-fit statistic calculators. Each is
// a ports.StatisticFunc over a transformed sample.
package statistic

import (
	"fmt"

	"gofit/domain/gof"
	"gofit/ports"
)

// ForKind returns the calculator for a built-in statistic kind
func ForKind(kind gof.StatisticKind) (ports.StatisticFunc, error) {
	switch kind {
	case gof.KindSupremum:
		return Supremum, nil
	case gof.KindQuadratic:
		return Quadratic, nil
	case gof.KindWeighted:
		return Weighted, nil
	default:
		return nil, fmt.Errorf("no built-in calculator for statistic kind %q", kind)
	}
}

// Compute evaluates fn and tags the value with its kind and sample size
func Compute(kind gof.StatisticKind, fn ports.StatisticFunc, sample gof.TransformedSample) (gof.Statistic, error) {
	v, err := fn(sample)
	if err != nil {
		return gof.Statistic{}, err
	}
	return gof.Statistic{Kind: kind, Value: v, SampleSize: sample.Len()}, nil
}
