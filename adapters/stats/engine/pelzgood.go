package engine

import "math"

// pelzGoodCDF returns P(D_n <= d) from the Pelz-Good expansion: the
// Kolmogorov limit plus its 1/sqrt(n) and 1/n corrections.
func pelzGoodCDF(n int, d float64, opts SeriesOptions) (float64, error) {
	x := 1 / d
	r2 := 1 / float64(n)
	rx := math.Sqrt(r2) * x
	r2x := r2 * x
	r2x2 := r2x * x
	r4x := r2x * r2
	r4x2 := r2x2 * r2
	r4x3 := r2x2 * r2x
	r5x3 := r4x2 * rx
	r5x4 := r4x3 * rx
	r6x3 := r4x2 * r2x
	r7x5 := r5x4 * r2x
	r9x6 := r7x5 * r2x
	r11x8 := r9x6 * r2x2

	pi2 := math.Pi * math.Pi
	pi4 := pi2 * pi2
	pi6 := pi4 * pi2

	a1 := rx * (-r6x3/108 + r4x2/18 - r4x/36 - r2x/3 + r2/6 + 2)
	a2 := pi2 / 3 * r5x3 * (r4x3/8 - 5*r2x2/12 - 4*r2x/45 + x + 1.0/6)
	a3 := pi4 / 9 * r7x5 * (-r4x3/6 + r2x2/4 + 53*r2x/90 - 0.5)
	a4 := pi6 / 108 * r11x8 * (r2x2/6 - 1)
	a5 := pi2 / 18 * r5x3 * (r2x/2 - 1)
	a6 := -pi4 * r9x6 / 108
	w := -pi2 / 2 * r2x2

	sum, err := sumSeries("pelz-good", opts, 0, 0, func(k int) float64 {
		hs2 := (float64(k) + 0.5) * (float64(k) + 0.5)
		is2 := float64(k+1) * float64(k+1)
		return (a1+(a2+(a3+a4*hs2)*hs2)*hs2)*math.Exp(w*hs2) + (a5+a6*is2)*is2*math.Exp(w*is2)
	})
	return math.Sqrt(math.Pi/2) * sum, err
}
