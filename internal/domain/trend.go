package domain

import (
	"slices"
)

// YearlyMeans collapses points to one mean value per year, sorted by year.
// Values within a year are summed in ascending order so that any permutation
// of the input produces identical results.
func YearlyMeans(points []Point) []Point {
	byYear := make(map[int][]float64)
	for _, p := range points {
		byYear[p.Year] = append(byYear[p.Year], p.Value)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make([]Point, 0, len(years))
	for _, y := range years {
		vals := byYear[y]
		slices.Sort(vals)
		var sum float64
		for _, v := range vals {
			sum += v
		}
		out = append(out, Point{Year: y, Value: sum / float64(len(vals))})
	}
	return out
}

// FitTrend fits value = slope*year + intercept by ordinary least squares over
// the yearly means of points, and returns the fitted value for each distinct year.
//
// It reports false when fewer than two distinct years are present: callers must
// draw nothing in that case.
func FitTrend(group string, points []Point) (TrendLine, bool) {
	series := YearlyMeans(points)
	if len(series) < 2 {
		return TrendLine{}, false
	}

	n := float64(len(series))
	var sumX, sumY float64
	for _, p := range series {
		sumX += float64(p.Year)
		sumY += p.Value
	}
	meanX, meanY := sumX/n, sumY/n

	// Centred form avoids cancellation with year-sized x values.
	var sxx, sxy float64
	for _, p := range series {
		dx := float64(p.Year) - meanX
		sxx += dx * dx
		sxy += dx * (p.Value - meanY)
	}

	line := TrendLine{
		Group:     group,
		Slope:     sxy / sxx,
		Intercept: meanY - (sxy/sxx)*meanX,
		Fitted:    make([]Point, 0, len(series)),
	}
	for _, p := range series {
		line.Fitted = append(line.Fitted, Point{Year: p.Year, Value: line.At(p.Year)})
	}
	return line, true
}
