package engine

import (
	"math"

	"gofit/domain/core"
)

func (o SeriesOptions) normalized() SeriesOptions {
	def := DefaultSeriesOptions()
	if !(o.Tolerance > 0 && o.Tolerance < 1) {
		o.Tolerance = def.Tolerance
	}
	if o.MaxTerms < 2 {
		o.MaxTerms = def.MaxTerms
	}
	return o
}

// sumSeries adds term(first), term(first+1), ... to init until two
// successive terms are within the tolerance of the running sum. Hitting
// MaxTerms returns the partial sum with a *core.ConvergenceWarning.
func sumSeries(name string, opts SeriesOptions, first int, init float64, term func(k int) float64) (float64, error) {
	sum := init
	small := 0
	last := 0.0
	for i := 0; i < opts.MaxTerms; i++ {
		last = term(first + i)
		sum += last
		if math.IsNaN(sum) {
			return math.NaN(), core.NewNumericalError(name, sum)
		}
		if math.Abs(last) <= opts.Tolerance*math.Abs(sum) {
			small++
			if small == 2 {
				return sum, nil
			}
		} else {
			small = 0
		}
	}
	return sum, &core.ConvergenceWarning{
		Series:    name,
		Terms:     opts.MaxTerms,
		LastTerm:  last,
		Tolerance: opts.Tolerance,
	}
}

// firstWarning returns the first non-nil error, preferring fatal ones
func firstWarning(errs ...error) error {
	var warn error
	for _, err := range errs {
		if core.IsFatal(err) {
			return err
		}
		if err != nil && warn == nil {
			warn = err
		}
	}
	return warn
}
