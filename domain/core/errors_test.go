package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestDomainErrorsWrapErrDomain(t *testing.T) {
	for _, err := range []error{
		ErrEmptySample,
		ErrNonFiniteSample,
		ErrCDFOutOfRange,
		ErrCDFNotMonotone,
		ErrDegenerateTail,
		ErrInvalidSampleSize,
		ErrUnsortedSample,
		NewDomainError("bad %s", "input"),
		NewCDFOutOfRangeError(1, 1.5),
	} {
		if !IsDomainError(err) {
			t.Errorf("IsDomainError(%v) = false", err)
		}
		if !IsFatal(err) {
			t.Errorf("IsFatal(%v) = false", err)
		}
		if IsNumericalError(err) {
			t.Errorf("IsNumericalError(%v) = true", err)
		}
	}
	if !errors.Is(NewCDFOutOfRangeError(1, 1.5), ErrCDFOutOfRange) {
		t.Error("NewCDFOutOfRangeError does not wrap ErrCDFOutOfRange")
	}
}

func TestNumericalError(t *testing.T) {
	err := NewNumericalError("series", math.NaN())
	if !IsNumericalError(err) || IsDomainError(err) {
		t.Errorf("unexpected classification of %v", err)
	}
	if !IsFatal(err) {
		t.Error("numerical errors must be fatal")
	}
}

func TestConvergenceWarning(t *testing.T) {
	w := &ConvergenceWarning{Series: "kolmogorov", Terms: 100, LastTerm: 1e-8, Tolerance: 1e-10}
	wrapped := fmt.Errorf("p-value: %w", w)

	if !IsConvergenceWarning(wrapped) {
		t.Error("IsConvergenceWarning(wrapped) = false")
	}
	if !errors.Is(wrapped, ErrConvergence) {
		t.Error("warning does not unwrap to ErrConvergence")
	}
	if IsFatal(wrapped) {
		t.Error("a convergence warning must not be fatal")
	}
	if IsFatal(nil) {
		t.Error("IsFatal(nil) = true")
	}

	var got *ConvergenceWarning
	if !errors.As(wrapped, &got) || got.Terms != 100 {
		t.Errorf("errors.As = %+v", got)
	}
}
