package gof

import (
	"fmt"
	"math"

	"gofit/domain/core"
)

// StatisticKind tags a goodness-of-fit statistic
type StatisticKind string

const (
	KindSupremum  StatisticKind = "supremum"  // Kolmogorov-Smirnov D
	KindQuadratic StatisticKind = "quadratic" // Cramer-von Mises W²
	KindWeighted  StatisticKind = "weighted"  // Anderson-Darling A²
	KindCustom    StatisticKind = "custom"
)

// Statistic is a statistic value paired with the sample size that produced it.
// Distribution engines are indexed by n, so the two always travel together.
type Statistic struct {
	Kind       StatisticKind `json:"kind"`
	Value      float64       `json:"value"`
	SampleSize int           `json:"sample_size"`
}

// Result is the outcome of a single test
type Result struct {
	Kind       StatisticKind `json:"kind"`
	Statistic  float64       `json:"statistic"`
	PValue     float64       `json:"p_value"`
	SampleSize int           `json:"sample_size"`

	// LowConfidence is set when a series was truncated at its iteration cap;
	// Warning then holds the *core.ConvergenceWarning.
	LowConfidence bool  `json:"low_confidence,omitempty"`
	Warning       error `json:"-"`
}

// Rejected reports whether the null hypothesis is rejected at level alpha
func (r Result) Rejected(alpha float64) bool {
	return r.PValue < alpha
}

func (r Result) String() string {
	s := fmt.Sprintf("%s: statistic=%.6g pvalue=%.6g n=%d", r.Kind, r.Statistic, r.PValue, r.SampleSize)
	if r.LowConfidence {
		s += " (low confidence)"
	}
	return s
}

// TransformedSample holds the sorted reference-CDF values of a sample.
// Under the null hypothesis they are uniform on [0, 1].
//
// INVARIANTS:
// - len(Values) >= 1
// - Values ascending, every value in [0, 1]
// - upper, when present, has the same length and upper[i] approximates 1-Values[i]
type TransformedSample struct {
	Values []float64
	upper  []float64
}

// NewTransformedSample validates already-transformed values. Use it to feed
// the statistic calculators with data that is uniform under some null.
func NewTransformedSample(values []float64) (TransformedSample, error) {
	return NewTransformedSampleWithSurvival(values, nil)
}

// NewTransformedSampleWithSurvival is NewTransformedSample with directly
// evaluated upper-tail values (1 - F) that keep precision near 1.
func NewTransformedSampleWithSurvival(values, survival []float64) (TransformedSample, error) {
	if len(values) == 0 {
		return TransformedSample{}, core.ErrEmptySample
	}
	if survival != nil && len(survival) != len(values) {
		return TransformedSample{}, core.NewDomainError("survival values: got %d, want %d", len(survival), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return TransformedSample{}, fmt.Errorf("%w: value %d is %g", core.ErrCDFOutOfRange, i, v)
		}
		if i > 0 && v < values[i-1] {
			return TransformedSample{}, fmt.Errorf("%w: value %d (%g) < value %d (%g)", core.ErrUnsortedSample, i, v, i-1, values[i-1])
		}
		if survival != nil {
			if s := survival[i]; math.IsNaN(s) || s < 0 || s > 1 {
				return TransformedSample{}, fmt.Errorf("%w: survival %d is %g", core.ErrCDFOutOfRange, i, s)
			}
		}
	}
	return TransformedSample{Values: values, upper: survival}, nil
}

// Len returns the sample size n
func (s TransformedSample) Len() int {
	return len(s.Values)
}

// Complement returns 1 - Values[i], using the directly evaluated survival
// value when the reference distribution provided one.
func (s TransformedSample) Complement(i int) float64 {
	if s.upper != nil {
		return s.upper[i]
	}
	return 1 - s.Values[i]
}

// HasSurvival reports whether Complement uses directly evaluated values
func (s TransformedSample) HasSurvival() bool {
	return s.upper != nil
}
