package app

import (
	"math/rand/v2"
	"sort"

	"gofit/domain/core"
	"gofit/domain/gof"
	"gofit/internal/errors"
	"gofit/ports"
)

// CriticalValues estimates the null distribution of a distribution-free
// statistic by simulation. Each of rounds iterations draws samples sorted
// uniforms and evaluates stat on them; the sorted statistics are returned at
// every rounds/precision-th position, giving precision-1 values when rounds
// is a multiple of precision. With precision = 100, a statistic above the
// value at index 94 has a p-value below about 0.05.
func CriticalValues(stat ports.StatisticFunc, samples, precision, rounds int, rng *rand.Rand) ([]float64, error) {
	if stat == nil {
		return nil, errors.InvalidInput(core.ErrDomain, "critical values: statistic is required")
	}
	if samples < 1 {
		return nil, errors.InvalidInput(core.ErrInvalidSampleSize, "critical values: got %d samples", samples)
	}
	if precision < 2 || rounds < precision {
		return nil, errors.InvalidInput(core.ErrDomain, "critical values: need rounds (%d) >= precision (%d) >= 2", rounds, precision)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	stats := make([]float64, rounds)
	values := make([]float64, samples)
	for r := range stats {
		for i := range values {
			values[i] = rng.Float64()
		}
		sort.Float64s(values)
		sample, err := gof.NewTransformedSample(values)
		if err != nil {
			return nil, err
		}
		v, err := stat(sample)
		if err != nil {
			return nil, err
		}
		stats[r] = v
	}
	sort.Float64s(stats)

	step := rounds / precision
	critical := make([]float64, 0, precision-1)
	for i := step; i < rounds; i += step {
		critical = append(critical, stats[i])
	}
	return critical, nil
}
