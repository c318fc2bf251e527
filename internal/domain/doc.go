// Package domain models Météo-France station measurements for La Réunion and
// the pure stages that turn them into zone-level climate indicators.
//
// # Data Source
//
// Measurements come from the Météo-France monthly and yearly station tables
// loaded into the warehouse. Each station (NUM_POSTE) belongs to one geographic
// zone (Z_GEO) and one climate zone (Z_CLIM). Scenario deltas come from a
// separate simulation table keyed by scenario and geographic zone.
//
// # Météo-France Conventions
//
// Column codes:
//
//	RR          monthly rainfall total (mm)
//	RRAB        maximum rainfall in 24 hours within the month (mm)
//	NBJRR100    number of days with rainfall above 100 mm
//	RRMX        maximum rainfall metric of the year
//	NBJFXI3S16X number of days with instantaneous gusts above 16 m/s
//	NBJTXS32    number of days with maximum temperature above 32 °C
//
// Years are sometimes stored as strings ('1991'); the warehouse adapter
// converts them before they reach this package.
//
// Zones:
//
//	AV_C / AV_H   windward coast, low / high altitude
//	SSV_C / SSV_H leeward coast, low / high altitude
//
// # Stages
//
// Aggregator ([Aggregate], [AggregateRainfall], [AggregateWindRain]) groups
// per-station rows into zone/year or year/month summaries. Day counts are first
// summed per station and only then averaged across stations.
//
// Classifier ([Classifier.Classify], [DetectRainEvents]) maps intensity metrics
// to ordinal labels using strict, top-down thresholds:
//
//	Wind: >32.7 Cyclone | >28.5 Tempête Violente | >24.5 Tempête | Normal
//	Rain: >5000 Année très pluvieuse | >3000 Année Normale | >1000 Année Sèche | Normal
//	Major episode: wind >32.7 and rain >5000
//
// Projector ([Project]) adds a scenario delta at the horizon year to the
// 1991–2020 zone baseline. The projected value is always recomputed.
//
// Trend Estimator ([FitTrend]) fits a least-squares line per zone group. With
// fewer than two distinct years no trend is returned.
//
// Every stage is a pure function of its input and never returns a row for a
// group without data.
package domain
