package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultThresholds())
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name      string
		wind      float64
		rain      float64
		wantWind  WindSeverity
		wantRain  RainSeverity
		wantMajor MajorEpisode
	}{
		{"cyclone and very wet", 33.0, 5500, WindCyclone, RainVeryWet, MajorCyclone},
		{"all normal", 20.0, 500, WindNormal, RainNormal, MajorNone},
		{"cyclone but not very wet", 40, 4000, WindCyclone, RainAverage, MajorNone},
		{"very wet but not cyclone", 30, 9000, WindViolentStorm, RainVeryWet, MajorNone},
		{"storm dry year", 25, 1500, WindStorm, RainDryYear, MajorNone},
		{"wind exactly at cyclone threshold", 32.7, 6000, WindViolentStorm, RainVeryWet, MajorNone},
		{"wind exactly at violent storm threshold", 28.5, 0, WindStorm, RainNormal, MajorNone},
		{"wind exactly at storm threshold", 24.5, 0, WindNormal, RainNormal, MajorNone},
		{"rain exactly at very wet threshold", 35, 5000, WindCyclone, RainAverage, MajorNone},
		{"rain exactly at average threshold", 0, 3000, WindNormal, RainDryYear, MajorNone},
		{"rain exactly at dry threshold", 0, 1000, WindNormal, RainNormal, MajorNone},
		{"negative values", -1, -1, WindNormal, RainNormal, MajorNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.wind, tt.rain)

			require.NoError(t, err)
			assert.Equal(t, tt.wantWind, got.Wind)
			assert.Equal(t, tt.wantRain, got.Rain)
			assert.Equal(t, tt.wantMajor, got.Major)
			assert.Equal(t, tt.wind, got.WindValue)
			assert.Equal(t, tt.rain, got.RainValue)
		})
	}
}

func TestClassify_NonNumeric(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name       string
		wind, rain float64
	}{
		{"NaN wind", math.NaN(), 100},
		{"NaN rain", 10, math.NaN()},
		{"Inf wind", math.Inf(1), 100},
		{"negative Inf rain", 10, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(tt.wind, tt.rain)
			require.ErrorIs(t, err, ErrNonNumeric)
		})
	}
}

func TestClassify_WindMonotonic(t *testing.T) {
	c := newTestClassifier(t)
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		w1 := rng.Float64() * 50
		w2 := w1 + rng.Float64()*10
		a, err := c.Classify(w1, 0)
		require.NoError(t, err)
		b, err := c.Classify(w2, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.Wind.Rank(), a.Wind.Rank(), "wind %v -> %s, %v -> %s", w1, a.Wind, w2, b.Wind)
	}
}

func TestClassify_MajorEpisodeIffBothAxes(t *testing.T) {
	c := newTestClassifier(t)
	rng := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 2000; i++ {
		wind := 20 + rng.Float64()*20
		rain := 3000 + rng.Float64()*4000
		got, err := c.Classify(wind, rain)
		require.NoError(t, err)

		both := wind > 32.7 && rain > 5000
		assert.Equal(t, both, got.Major == MajorCyclone, "wind=%v rain=%v", wind, rain)
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 0, WindNormal.Rank())
	assert.Equal(t, 1, WindStorm.Rank())
	assert.Equal(t, 2, WindViolentStorm.Rank())
	assert.Equal(t, 3, WindCyclone.Rank())
	assert.Equal(t, -1, WindSeverity("Ouragan").Rank())
}

func TestNewClassifier_InvalidThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{"wind not descending", func(th *Thresholds) { th.WindStorm = 40 }},
		{"rain not descending", func(th *Thresholds) { th.RainDry = 3000 }},
		{"NaN threshold", func(th *Thresholds) { th.WindCyclone = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)

			_, err := NewClassifier(th)
			require.Error(t, err)
		})
	}
}

func TestClassifyYears(t *testing.T) {
	c := newTestClassifier(t)

	got, err := c.ClassifyYears([]WindRainYear{
		{Year: 2007, WindDays: 35, MaxRainfall: 6000, Stations: 3},
		{Year: 2008, WindDays: 10, MaxRainfall: 800, Stations: 3},
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2007, got[0].Year)
	assert.Equal(t, MajorCyclone, got[0].Major)
	assert.Equal(t, 2008, got[1].Year)
	assert.Equal(t, WindNormal, got[1].Wind)
}

func TestDetectRainEvents(t *testing.T) {
	months := []RainfallMonth{
		{Year: 2018, Month: 1, DaysOver100mm: 2.5},
		{Year: 2018, Month: 2, DaysOver100mm: 1.0}, // equal to the criterion: excluded
		{Year: 2018, Month: 3, DaysOver100mm: 0},
		{Year: 2019, Month: 2, DaysOver100mm: 1.01},
	}

	got := DetectRainEvents(months, DefaultRainEventMinDays)

	require.Len(t, got, 2)
	assert.Equal(t, "2018-1", dateOf(got[0]))
	assert.Equal(t, "2019-2", dateOf(got[1]))
}

func TestDetectRainEvents_Empty(t *testing.T) {
	got := DetectRainEvents(nil, DefaultRainEventMinDays)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func dateOf(m RainfallMonth) string {
	return fmt.Sprintf("%d-%d", m.Year, m.Month)
}
