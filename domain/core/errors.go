package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input shape errors (always surfaced to the caller)
	ErrDomain            = errors.New("domain error")
	ErrEmptySample       = fmt.Errorf("%w: empty sample", ErrDomain)
	ErrNonFiniteSample   = fmt.Errorf("%w: sample contains NaN", ErrDomain)
	ErrCDFOutOfRange     = fmt.Errorf("%w: reference CDF outside [0, 1]", ErrDomain)
	ErrCDFNotMonotone    = fmt.Errorf("%w: reference CDF decreasing over the sorted sample", ErrDomain)
	ErrDegenerateTail    = fmt.Errorf("%w: reference CDF is exactly 0 or 1 at a sample point", ErrDomain)
	ErrInvalidSampleSize = fmt.Errorf("%w: sample size must be positive", ErrDomain)
	ErrUnsortedSample    = fmt.Errorf("%w: transformed values not ascending", ErrDomain)

	// Arithmetic errors not attributable to the input
	ErrNumerical = errors.New("numerical error")

	// Non-fatal: truncated series
	ErrConvergence = errors.New("series did not converge")
)

// ConvergenceWarning reports a series truncated at its iteration cap. The
// value returned alongside it is still usable but has wider error bounds.
type ConvergenceWarning struct {
	Series    string
	Terms     int
	LastTerm  float64
	Tolerance float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%v: %s stopped after %d terms (last term %.3g, tolerance %.3g)",
		ErrConvergence, w.Series, w.Terms, w.LastTerm, w.Tolerance)
}

func (w *ConvergenceWarning) Unwrap() error {
	return ErrConvergence
}

// Error constructors with context
func NewDomainError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDomain, fmt.Sprintf(format, args...))
}

func NewNumericalError(where string, value float64) error {
	return fmt.Errorf("%w: %s produced %v", ErrNumerical, where, value)
}

func NewCDFOutOfRangeError(x, cdf float64) error {
	return fmt.Errorf("%w: F(%g) = %g", ErrCDFOutOfRange, x, cdf)
}

// Error checking helpers
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrNumerical)
}

// IsConvergenceWarning reports whether err is (or wraps) a truncated-series
// warning.
func IsConvergenceWarning(err error) bool {
	var w *ConvergenceWarning
	return errors.As(err, &w)
}

// IsFatal reports whether err should abort a test. Convergence warnings are
// the only non-fatal condition.
func IsFatal(err error) bool {
	return err != nil && !IsConvergenceWarning(err)
}
