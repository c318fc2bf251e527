package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitTrend_PerfectLine(t *testing.T) {
	points := []Point{{2000, 10}, {2001, 12}, {2002, 14}, {2003, 16}}

	line, ok := FitTrend("coast", points)

	require.True(t, ok)
	assert.Equal(t, "coast", line.Group)
	assert.InDelta(t, 2.0, line.Slope, 1e-9)
	assert.InDelta(t, 10.0, line.At(2000), 1e-9)
	require.Len(t, line.Fitted, 4)
	for i, p := range line.Fitted {
		assert.Equal(t, points[i].Year, p.Year)
		assert.InDelta(t, points[i].Value, p.Value, 1e-9)
	}
}

func TestFitTrend_AveragesDuplicateYears(t *testing.T) {
	points := []Point{{2000, 8}, {2000, 12}, {2010, 20}}

	line, ok := FitTrend("g", points)

	require.True(t, ok)
	assert.InDelta(t, 1.0, line.Slope, 1e-9)
	assert.Len(t, line.Fitted, 2)
}

func TestFitTrend_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"empty", nil},
		{"single point", []Point{{2000, 5}}},
		{"single distinct year", []Point{{2000, 5}, {2000, 9}, {2000, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := FitTrend("g", tt.points)

			assert.False(t, ok)
			assert.Equal(t, TrendLine{}, line)
		})
	}
}

func TestFitTrend_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	var points []Point
	for y := 1960; y <= 2024; y++ {
		for k := 0; k < 3; k++ {
			points = append(points, Point{Year: y, Value: rng.Float64()*30 + float64(y-1960)*0.1})
		}
	}

	want, ok := FitTrend("g", points)
	require.True(t, ok)

	for i := 0; i < 20; i++ {
		shuffled := append([]Point(nil), points...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, ok := FitTrend("g", shuffled)
		require.True(t, ok)
		assert.Equal(t, want.Slope, got.Slope)
		assert.Equal(t, want.Intercept, got.Intercept)
	}
}

func TestYearlyMeans(t *testing.T) {
	got := YearlyMeans([]Point{{2001, 4}, {2000, 1}, {2001, 6}})

	assert.Equal(t, []Point{{2000, 1}, {2001, 5}}, got)
}
