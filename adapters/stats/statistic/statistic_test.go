package statistic

import (
	"errors"
	"math"
	"testing"

	"gofit/domain/core"
	"gofit/domain/gof"
)

func mustSample(t *testing.T, values ...float64) gof.TransformedSample {
	t.Helper()
	s, err := gof.NewTransformedSample(values)
	if err != nil {
		t.Fatalf("NewTransformedSample(%v) error = %v", values, err)
	}
	return s
}

func TestStatistics(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		wantSupremum  float64
		wantQuadratic float64
		wantWeighted  float64
	}{
		{"evenly spread", []float64{0.125, 0.375, 0.625, 0.875}, 0.125, 0.0208333333, 0.1533335977},
		{"bunched low", []float64{0.1, 0.2, 0.3, 0.4}, 0.6, 0.3833333333, 1.7497224492},
		{"bunched high", []float64{0.6, 0.7, 0.8, 0.9}, 0.6, 0.3833333333, 1.7497224492},
		{"single point", []float64{0.5}, 0.5, 1.0 / 12, -1 - 2*math.Log(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSample(t, tt.values...)
			check := func(label string, fn func(gof.TransformedSample) (float64, error), want float64) {
				got, err := fn(s)
				if err != nil {
					t.Fatalf("%s error = %v", label, err)
				}
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s = %.10f, want %.10f", label, got, want)
				}
			}
			check("Supremum", Supremum, tt.wantSupremum)
			check("Quadratic", Quadratic, tt.wantQuadratic)
			check("Weighted", Weighted, tt.wantWeighted)
		})
	}
}

func TestStatisticsEmptySample(t *testing.T) {
	var empty gof.TransformedSample
	for name, fn := range map[string]func(gof.TransformedSample) (float64, error){
		"Supremum":  Supremum,
		"Quadratic": Quadratic,
		"Weighted":  Weighted,
	} {
		if _, err := fn(empty); !errors.Is(err, core.ErrEmptySample) {
			t.Errorf("%s(empty) error = %v, want ErrEmptySample", name, err)
		}
	}
}

func TestWeightedDegenerateTail(t *testing.T) {
	for _, values := range [][]float64{{0, 0.5}, {0.5, 1}} {
		s := mustSample(t, values...)
		_, err := Weighted(s)
		if !errors.Is(err, core.ErrDegenerateTail) {
			t.Errorf("Weighted(%v) error = %v, want ErrDegenerateTail", values, err)
		}
		if !core.IsDomainError(err) {
			t.Errorf("Weighted(%v) error should be a domain error", values)
		}
	}
}

func TestWeightedPrefersSurvivalValues(t *testing.T) {
	// 1 - 0.9999999999999999 loses most of its digits; the survival value keeps them
	values := []float64{0.3, 1 - 1e-16}
	survival := []float64{0.7, 1.1e-16}

	s, err := gof.NewTransformedSampleWithSurvival(values, survival)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Weighted(s)
	if err != nil {
		t.Fatal(err)
	}
	want := -2 - (math.Log(0.3) + math.Log(1.1e-16) + 3*(math.Log(1-1e-16)+math.Log(0.7)))/2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Weighted = %.12f, want %.12f", got, want)
	}
}

func TestSupremumBounds(t *testing.T) {
	// D is always in [1/(2n), 1]
	samples := [][]float64{
		{0.5},
		{0, 0},
		{1, 1, 1},
		{0.1, 0.3, 0.5, 0.7, 0.9},
	}
	for _, values := range samples {
		d, err := Supremum(mustSample(t, values...))
		if err != nil {
			t.Fatal(err)
		}
		n := float64(len(values))
		if d < 1/(2*n)-1e-15 || d > 1 {
			t.Errorf("Supremum(%v) = %g outside [1/(2n), 1]", values, d)
		}
	}
}

func TestForKind(t *testing.T) {
	s := mustSample(t, 0.1, 0.2, 0.3, 0.4)
	for _, kind := range []gof.StatisticKind{gof.KindSupremum, gof.KindQuadratic, gof.KindWeighted} {
		fn, err := ForKind(kind)
		if err != nil {
			t.Fatalf("ForKind(%s) error = %v", kind, err)
		}
		st, err := Compute(kind, fn, s)
		if err != nil {
			t.Fatal(err)
		}
		if st.Kind != kind || st.SampleSize != 4 || st.Value <= 0 {
			t.Errorf("Compute(%s) = %+v", kind, st)
		}
	}
	if _, err := ForKind(gof.KindCustom); err == nil {
		t.Error("ForKind(custom) should fail")
	}
}
