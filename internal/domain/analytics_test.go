package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummaries() []ZoneYearSummary {
	return []ZoneYearSummary{
		{Year: 1983, ZoneClim: "Aw", ZoneGeo: "AV_C", Value: 10, Stations: 2},
		{Year: 1983, ZoneClim: "Aw", ZoneGeo: "SSV_C", Value: 20, Stations: 1},
		{Year: 1983, ZoneClim: "Cfb", ZoneGeo: "AV_H", Value: 1, Stations: 1},
		{Year: 2024, ZoneClim: "Aw", ZoneGeo: "AV_C", Value: 40, Stations: 2},
		{Year: 2024, ZoneClim: "Aw", ZoneGeo: "SSV_C", Value: 50, Stations: 1},
		{Year: 2024, ZoneClim: "Cfb", ZoneGeo: "AV_H", Value: 3, Stations: 1},
	}
}

func TestGroupYearMeans(t *testing.T) {
	got := GroupYearMeans(sampleSummaries(), CoastalZones)

	assert.Equal(t, []Point{{1983, 15}, {2024, 45}}, got)
	assert.Equal(t, []Point{{1983, 1}, {2024, 3}}, GroupYearMeans(sampleSummaries(), HighlandZones))
}

func TestIncrease(t *testing.T) {
	got, ok := Increase(CoastalZones.Name, GroupYearMeans(sampleSummaries(), CoastalZones))

	require.True(t, ok)
	assert.Equal(t, GroupIncrease{
		Group: CoastalZones.Name, FromYear: 1983, ToYear: 2024, FromValue: 15, ToValue: 45, Change: 30,
	}, got)

	_, ok = Increase("none", nil)
	assert.False(t, ok)
}

func TestYearDeviation(t *testing.T) {
	got, ok := YearDeviation(sampleSummaries(), 2024)

	require.True(t, ok)
	assert.InDelta(t, 31.0, got.YearMean, 1e-9)
	assert.InDelta(t, 124.0/6, got.HistoricalMean, 1e-9)
	assert.InDelta(t, 31.0-124.0/6, got.Delta, 1e-9)

	_, ok = YearDeviation(sampleSummaries(), 1800)
	assert.False(t, ok)
}

func TestFilters(t *testing.T) {
	s := sampleSummaries()

	assert.Len(t, FilterFromYear(s, 2000), 3)
	assert.Len(t, FilterClimZone(s, "Cfb"), 2)
	assert.Len(t, FilterClimZone(s, ""), 6)
}

func TestRankZones(t *testing.T) {
	got := RankZones(sampleSummaries())

	want := []ZoneMean{{ZoneClim: "Aw", Mean: 30}, {ZoneClim: "Cfb", Mean: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RankZones() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Aw", "Cfb"}, ClimZones(sampleSummaries()))
}

func TestSummarizeRainEvents(t *testing.T) {
	events := []RainfallMonth{
		{Year: 2018, Month: 1, Rainfall: 900, DaysOver100mm: 3},
		{Year: 2018, Month: 2, Rainfall: 400, DaysOver100mm: 1.5},
		{Year: 2007, Month: 2, Rainfall: 1200, DaysOver100mm: 2},
		{Year: 2007, Month: 3, Rainfall: 300, DaysOver100mm: 1.2},
		{Year: 2010, Month: 1, Rainfall: 500, DaysOver100mm: 4},
	}

	got := SummarizeRainEvents(events, 2)

	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 2007, got.MostAffected, "ties resolve to the earliest year")
	assert.Equal(t, 1200.0, got.MaxRainfall)
	assert.Equal(t, 4.0, got.MaxDaysOver100)
	assert.Equal(t, []YearCount{{2007, 2}, {2010, 1}, {2018, 2}}, got.PerYear)
	assert.Equal(t, []MonthCount{{1, "Jan", 2}, {2, "Fév", 2}, {3, "Mar", 1}}, got.PerMonth)
	require.Len(t, got.MostIntenseTopN, 2)
	assert.Equal(t, 1200.0, got.MostIntenseTopN[0].Rainfall)
	assert.Equal(t, 900.0, got.MostIntenseTopN[1].Rainfall)
}

func TestSummarizeRainEvents_Empty(t *testing.T) {
	got := SummarizeRainEvents(nil, 10)

	assert.Equal(t, 0, got.Total)
	assert.Zero(t, got.MostAffected)
	assert.NotNil(t, got.PerYear)
	assert.NotNil(t, got.MostIntenseTopN)
}

func TestSeverityDistribution(t *testing.T) {
	classes := []SeverityClassification{
		{Year: 1960, Wind: WindStorm},
		{Year: 1970, Wind: WindCyclone},
		{Year: 1980, Wind: WindNormal},
		{Year: 1990, Wind: WindStorm},
		{Year: 2007, Wind: WindCyclone},
	}
	periods := DefaultPeriods()

	early := SeverityDistribution(classes, periods[0])
	late := SeverityDistribution(classes, periods[1])

	assert.Equal(t, []SeverityCount{{WindCyclone, 1}, {WindStorm, 2}}, early)
	assert.Equal(t, []SeverityCount{{WindCyclone, 1}}, late)
}

func TestMonthLabels(t *testing.T) {
	assert.Equal(t, "Janvier", MonthLabel(1))
	assert.Equal(t, "Décembre", MonthLabel(12))
	assert.Equal(t, "Aoû", MonthShortLabel(8))
	assert.Empty(t, MonthLabel(0))
	assert.Empty(t, MonthShortLabel(13))
}
