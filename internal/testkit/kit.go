// Package testkit provides deterministic samples and p-value summaries for
// goodness-of-fit tests.
package testkit

import (
	"fmt"
	"math/rand/v2"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewRand returns a deterministic generator for seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// UniformSample draws n values uniformly from [min, max)
func UniformSample(rng *rand.Rand, n int, min, max float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = min + (max-min)*rng.Float64()
	}
	return xs
}

// NormalSample draws n values from N(mu, sigma²)
func NormalSample(rng *rand.Rand, n int, mu, sigma float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = mu + sigma*rng.NormFloat64()
	}
	return xs
}

// Shuffled returns a permuted copy of xs
func Shuffled(rng *rand.Rand, xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Shifted returns xs + delta
func Shifted(xs []float64, delta float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x + delta
	}
	return out
}

// Quantiler is implemented by gonum distributions
type Quantiler interface {
	Quantile(p float64) float64
}

// QuantileGrid returns the n quantiles at probabilities (i + 1/2)/n, the
// most evenly spread sample of size n the distribution can produce
func QuantileGrid(dist Quantiler, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = dist.Quantile((float64(i) + 0.5) / float64(n))
	}
	return xs
}

// NormalGrid is QuantileGrid for the standard normal distribution
func NormalGrid(n int) []float64 {
	return QuantileGrid(distuv.UnitNormal, n)
}

// UniformitySummary describes a set of p-values that should be uniform on
// [0, 1] under the null hypothesis
type UniformitySummary struct {
	N         int
	Mean      float64
	Median    float64
	StdDev    float64
	Q10       float64
	Q90       float64
	BelowFive float64 // fraction of p-values below 0.05
}

// SummarizePValues computes a UniformitySummary
func SummarizePValues(pvalues []float64) (UniformitySummary, error) {
	if len(pvalues) == 0 {
		return UniformitySummary{}, fmt.Errorf("no p-values to summarize")
	}
	data := stats.LoadRawData(pvalues)

	s := UniformitySummary{N: len(pvalues)}
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	if s.Q10, err = stats.Percentile(data, 10); err != nil {
		return s, err
	}
	if s.Q90, err = stats.Percentile(data, 90); err != nil {
		return s, err
	}

	below := 0
	for _, p := range pvalues {
		if p < 0.05 {
			below++
		}
	}
	s.BelowFive = float64(below) / float64(len(pvalues))
	return s, nil
}

// Uniform reports whether the summary is consistent with U(0, 1) within
// tol on the mean, median and deciles. The standard deviation of U(0, 1)
// is 1/sqrt(12).
func (s UniformitySummary) Uniform(tol float64) bool {
	within := func(got, want float64) bool { return got > want-tol && got < want+tol }
	return within(s.Mean, 0.5) &&
		within(s.Median, 0.5) &&
		within(s.Q10, 0.1) &&
		within(s.Q90, 0.9) &&
		within(s.StdDev, 0.2886751)
}

func (s UniformitySummary) String() string {
	return fmt.Sprintf("n=%d mean=%.3f median=%.3f sd=%.3f q10=%.3f q90=%.3f below5%%=%.3f",
		s.N, s.Mean, s.Median, s.StdDev, s.Q10, s.Q90, s.BelowFive)
}
