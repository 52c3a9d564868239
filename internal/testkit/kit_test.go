package testkit

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNewRandIsDeterministic(t *testing.T) {
	a := UniformSample(NewRand(7), 20, 0, 1)
	b := UniformSample(NewRand(7), 20, 0, 1)
	c := UniformSample(NewRand(8), 20, 0, 1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, x := range a {
		assert.True(t, x >= 0 && x < 1)
	}
}

func TestNormalSample(t *testing.T) {
	xs := NormalSample(NewRand(1), 5000, 10, 2)
	s, err := SummarizePValues(xs)
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Mean, 0.1)
	assert.InDelta(t, 2, s.StdDev, 0.1)
}

func TestShuffledKeepsValues(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	got := Shuffled(NewRand(3), xs)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, xs)

	sort.Float64s(got)
	assert.Equal(t, xs, got)
}

func TestShifted(t *testing.T) {
	assert.Equal(t, []float64{1.5, 2.5}, Shifted([]float64{1, 2}, 0.5))
}

func TestQuantileGrid(t *testing.T) {
	got := QuantileGrid(distuv.Uniform{Min: 0, Max: 4}, 4)
	assert.InDeltaSlice(t, []float64{0.5, 1.5, 2.5, 3.5}, got, 1e-12)

	grid := NormalGrid(101)
	assert.InDelta(t, 0, grid[50], 1e-12)
	assert.InDelta(t, -grid[0], grid[100], 1e-9)
	assert.True(t, sort.Float64sAreSorted(grid))
}

func TestSummarizePValues(t *testing.T) {
	// an evenly spread set is as uniform as a finite set gets
	grid := QuantileGrid(distuv.Uniform{Min: 0, Max: 1}, 1000)
	s, err := SummarizePValues(grid)
	require.NoError(t, err)

	assert.Equal(t, 1000, s.N)
	assert.InDelta(t, 0.5, s.Mean, 1e-9)
	assert.InDelta(t, 0.05, s.BelowFive, 1e-9)
	assert.True(t, s.Uniform(0.01), s.String())

	skewed := make([]float64, len(grid))
	for i, p := range grid {
		skewed[i] = p * p
	}
	s, err = SummarizePValues(skewed)
	require.NoError(t, err)
	assert.False(t, s.Uniform(0.05), s.String())

	_, err = SummarizePValues(nil)
	assert.Error(t, err)
}
