package engine

import (
	"math"
	"testing"

	"gofit/domain/core"
)

func TestADLimitingPercentiles(t *testing.T) {
	e := NewADEngine(DefaultADOptions())

	tests := []struct {
		z, cdf float64
	}{
		{1.933, 0.90},
		{2.492, 0.95},
		{3.070, 0.975},
		{3.857, 0.99},
	}
	for _, tt := range tests {
		sf, err := e.LimitSurvival(tt.z)
		if err != nil {
			t.Fatalf("LimitSurvival(%g) error = %v", tt.z, err)
		}
		if math.Abs((1-sf)-tt.cdf) > 5e-4 {
			t.Errorf("limit CDF(%g) = %.6f, want %.3f", tt.z, 1-sf, tt.cdf)
		}
	}
}

func TestADReferenceValues(t *testing.T) {
	e := NewADEngine(DefaultADOptions())

	tests := []struct {
		name string
		n    int
		z    float64
		sf   float64
		tol  float64
	}{
		{"spread sample", 3, 0.366028, 0.875957, 1e-4},
		{"normal three points", 3, 0.921699, 0.390938, 1e-4},
		{"n=10 body", 10, 1.0, 0.355042851, 1e-7},
		{"n=10 five percent", 10, 2.5, 0.050708226, 1e-7},
		{"n=100 tail", 100, 8, 0.000114350172, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf, err := e.SurvivalFunction(tt.z, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(sf-tt.sf) > tt.tol {
				t.Errorf("SurvivalFunction(%g, %d) = %.10f, want %.10f", tt.z, tt.n, sf, tt.sf)
			}
			cdf, err := e.CDF(tt.z, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(cdf+sf-1) > 1e-12 {
				t.Errorf("cdf + survival = %.15g, want 1", cdf+sf)
			}
		})
	}
}

func TestADSingleObservation(t *testing.T) {
	e := NewADEngine(DefaultADOptions())

	if p, _ := e.CDF(math.Log(4)-1, 1); p != 0 {
		t.Errorf("CDF(ln4 - 1, 1) = %g, want 0", p)
	}
	for _, z := range []float64{0.5, 1, 3, 10, 40} {
		want := 1 - math.Sqrt(1-4*math.Exp(-1-z))
		if z > 10 {
			// the direct form keeps precision where the subtraction loses it
			want = 4 * math.Exp(-1-z) / 2
		}
		got, err := e.SurvivalFunction(z, 1)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "n=1 survival", got, want, 1e-8)
	}
}

func TestADUpperTail(t *testing.T) {
	e := NewADEngine(DefaultADOptions())

	// below TailStart the survival is 1 - CDF of the series; the tail form
	// must agree with it wherever that difference is still accurate
	for _, z := range []float64{8, 10, 12, 14, 16, 18, 19.5, 20} {
		cdf, err := e.limitCDF(z)
		if err != nil {
			t.Fatal(err)
		}
		sf, err := e.LimitSurvival(z)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "limit survival", sf, 1-cdf, 1e-3)
	}

	// the splice is continuous at TailStart
	start := e.Options().TailStart
	below, err := e.LimitSurvival(math.Nextafter(start, 0))
	if err != nil {
		t.Fatal(err)
	}
	at, err := e.LimitSurvival(start)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "limit survival at TailStart", at, below, 1e-6)

	// far in the tail the survival approaches sqrt(3/π)·e^{-z}/√z
	for _, z := range []float64{30, 50, 100} {
		sf, err := e.LimitSurvival(z)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "scaled tail", sf*math.Sqrt(z)*math.Exp(z), math.Sqrt(3/math.Pi), 0.2/z)
	}
}

func TestADExtremeFiniteSample(t *testing.T) {
	e := NewADEngine(DefaultADOptions())

	tests := []struct {
		n    int
		z    float64
		want float64
	}{
		{10, 12, 1.79095943e-06},
		{5, 15, 8.35337495e-08},
		{1000, 25, 2.69907295e-12},
	}
	for _, tt := range tests {
		sf, err := e.SurvivalFunction(tt.z, tt.n)
		if err != nil {
			t.Fatal(err)
		}
		assertClose(t, "extreme survival", sf, tt.want, 1e-6)
	}

	// extreme statistics keep a positive, decreasing p-value
	prev := 1.0
	for _, z := range []float64{10, 20, 40, 80} {
		sf, err := e.SurvivalFunction(z, 1000)
		if err != nil {
			t.Fatal(err)
		}
		if !(sf > 0 && sf < prev) {
			t.Errorf("SurvivalFunction(%g, 1000) = %g, want in (0, %g)", z, sf, prev)
		}
		prev = sf
	}
}

func TestADMonotone(t *testing.T) {
	e := NewADEngine(DefaultADOptions())
	for _, n := range []int{1, 2, 3, 5, 10, 100, 10000} {
		if err := ValidateMonotone(e, n, Grid(0, 40, 4001)); err != nil {
			t.Errorf("n=%d: %v", n, err)
		}
	}
}

func TestADBounds(t *testing.T) {
	e := NewADEngine(DefaultADOptions())
	if p, _ := e.SurvivalFunction(0, 5); p != 1 {
		t.Errorf("SurvivalFunction(0) = %g, want 1", p)
	}
	if p, _ := e.SurvivalFunction(-1, 5); p != 1 {
		t.Errorf("SurvivalFunction(-1) = %g, want 1", p)
	}
	if p, _ := e.SurvivalFunction(math.Inf(1), 5); p != 0 {
		t.Errorf("SurvivalFunction(+Inf) = %g, want 0", p)
	}
	if _, err := e.SurvivalFunction(1, 0); !core.IsDomainError(err) {
		t.Errorf("n=0: error = %v, want domain error", err)
	}
}

func TestADFiniteSampleCorrectionVanishesInTheTail(t *testing.T) {
	for _, u := range []float64{1e-3, 1e-8, 1e-15} {
		p := adFiniteSample(u, 5)
		if !p.upper {
			t.Fatalf("u=%g: expected an upper-tail result", u)
		}
		if rel := math.Abs(p.value-u) / u; rel > 0.2 {
			t.Errorf("u=%g: corrected survival %g differs by %.2g relative", u, p.value, rel)
		}
	}
}

func TestShiftedCorrection(t *testing.T) {
	g3 := func(x float64) float64 {
		s := 0.0
		for i := len(adG3) - 1; i >= 0; i-- {
			s = s*x + adG3[i]
		}
		return s
	}
	for _, u := range []float64{0.01, 0.1, 0.2} {
		want := g3(1-u) - g3(1)
		if got := adG3Shift(u); math.Abs(got-want) > 1e-9 {
			t.Errorf("adG3Shift(%g) = %g, want %g", u, got, want)
		}
	}
}

func TestADConvergenceWarning(t *testing.T) {
	e := NewADEngine(ADOptions{Series: SeriesOptions{Tolerance: 1e-300, MaxTerms: 2}, TailStart: 20})
	sf, err := e.SurvivalFunction(2, 20)
	if !core.IsConvergenceWarning(err) {
		t.Fatalf("error = %v, want a convergence warning", err)
	}
	if sf < 0 || sf > 1 {
		t.Errorf("survival %g outside [0, 1]", sf)
	}
}
