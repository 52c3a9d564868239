package engine

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// besselCutoff bounds the integrand e^{-a(cosh u - 1)} below e^{-50}
const besselCutoff = 50

// besselK evaluates modified Bessel functions of the second kind from the
// integral representation K_ν(a) = ∫₀^∞ e^{-a cosh u} cosh(νu) du, on
// Gauss-Legendre nodes computed once for [0, 1].
type besselK struct {
	x, w []float64
}

func newBesselK(nodes int) *besselK {
	if nodes < 16 {
		nodes = 16
	}
	b := &besselK{x: make([]float64, nodes), w: make([]float64, nodes)}
	quad.Legendre{}.FixedLocations(b.x, b.w, 0, 1)
	return b
}

// scaled returns e^{a} K_ν(a) for a > 0. The integral is truncated where
// the integrand drops below e^{-besselCutoff}.
func (b *besselK) scaled(nu, a float64) float64 {
	if !(a > 0) {
		return math.Inf(1)
	}
	upper := math.Acosh(1 + besselCutoff/a)
	sum := 0.0
	for i, x := range b.x {
		u := upper * x
		sh := math.Sinh(u / 2)
		sum += b.w[i] * math.Exp(-2*a*sh*sh) * math.Cosh(nu*u)
	}
	return sum * upper
}

// damped returns e^{-a} K_ν(a), the combination the Cramer-von Mises
// series needs.
func (b *besselK) damped(nu, a float64) float64 {
	return math.Exp(-2*a) * b.scaled(nu, a)
}
