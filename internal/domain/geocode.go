package domain

import (
	"context"
	"log/slog"
)

// EnrichWithLocality names the centroid of each projection row.
// If geocoder is nil or a lookup fails, rows are returned without a locality
// (graceful degradation). The input slice is not modified.
func EnrichWithLocality(ctx context.Context, rows []BaselineProjection, geocoder Geocoder, logger *slog.Logger) []BaselineProjection {
	if geocoder == nil || len(rows) == 0 {
		return rows
	}

	out := make([]BaselineProjection, len(rows))
	copy(out, rows)

	for i := range out {
		if out[i].Lat == 0 && out[i].Lon == 0 {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, out[i].Lat, out[i].Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"scenario", out[i].Scenario,
				"z_geo", out[i].ZoneGeo,
				"lat", out[i].Lat,
				"lon", out[i].Lon,
				"error", err,
			)
			continue
		}
		if result.PlaceName != "" {
			out[i].Locality = result.PlaceName
		}
	}
	return out
}
