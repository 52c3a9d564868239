package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Entries are kept below 2^scaleShift during the matrix power; the
// externalised binary exponent is restored at the end.
const scaleShift = 512

var (
	scaleUp   = math.Ldexp(1, scaleShift)
	scaleDown = math.Ldexp(1, -scaleShift)
)

// durbinCDF returns P(D_n < d) from Durbin's matrix formula as evaluated by
// Marsaglia, Tsang and Wang: with k = floor(nd) and h = k+1-nd, the answer
// is n!/n^n times the (k, k) entry of H^n for a (2k+1)-square matrix H.
// The cost is O(k³ log n), so callers keep nd small.
func durbinCDF(n int, d float64) float64 {
	fn := float64(n)
	k := int(fn * d)
	h := float64(k+1) - fn*d
	m := 2*k + 1

	H := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m && j <= i+1; j++ {
			H.Set(i, j, 1)
		}
	}
	for i := 0; i < m; i++ {
		H.Set(i, 0, H.At(i, 0)-math.Pow(h, float64(i+1)))
		H.Set(m-1, i, H.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		H.Set(m-1, 0, H.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j <= i && j < m; j++ {
			H.Set(i, j, H.At(i, j)/math.Gamma(float64(i-j+2)))
		}
	}

	P, exp := durbinPower(H, n, k)
	s := P.At(k, k)
	for i := 1; i <= n; i++ {
		s *= float64(i) / fn
		if s < scaleDown {
			s *= scaleUp
			exp -= scaleShift
		}
	}
	return clamp01(math.Ldexp(s, exp))
}

// durbinPower raises H to the n-th power by repeated squaring. Whenever the
// watched (k, k) entry exceeds 2^scaleShift the matrix is rescaled and the
// shift is carried in the returned binary exponent.
func durbinPower(H *mat.Dense, n, k int) (*mat.Dense, int) {
	var result *mat.Dense
	resultExp := 0

	base := mat.DenseCopyOf(H)
	baseExp := 0
	for n > 0 {
		if n&1 == 1 {
			if result == nil {
				result = mat.DenseCopyOf(base)
				resultExp = baseExp
			} else {
				var prod mat.Dense
				prod.Mul(result, base)
				result = &prod
				resultExp += baseExp
			}
			if result.At(k, k) > scaleUp {
				result.Scale(scaleDown, result)
				resultExp += scaleShift
			}
		}
		n >>= 1
		if n > 0 {
			var sq mat.Dense
			sq.Mul(base, base)
			base = &sq
			baseExp *= 2
			if base.At(k, k) > scaleUp {
				base.Scale(scaleDown, base)
				baseExp += scaleShift
			}
		}
	}
	return result, resultExp
}
