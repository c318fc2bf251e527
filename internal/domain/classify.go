package domain

import (
	"errors"
	"fmt"
)

// WindSeverity is the ordinal wind axis label.
type WindSeverity string

const (
	WindNormal       WindSeverity = "Normal"
	WindStorm        WindSeverity = "Tempête"
	WindViolentStorm WindSeverity = "Tempête Violente"
	WindCyclone      WindSeverity = "Cyclone"
)

// Rank orders wind labels: Normal < Tempête < Tempête Violente < Cyclone.
// Unknown labels rank -1.
func (s WindSeverity) Rank() int {
	switch s {
	case WindNormal:
		return 0
	case WindStorm:
		return 1
	case WindViolentStorm:
		return 2
	case WindCyclone:
		return 3
	default:
		return -1
	}
}

// RainSeverity is the ordinal rainfall axis label.
type RainSeverity string

const (
	RainNormal  RainSeverity = "Normal"
	RainDryYear RainSeverity = "Année Sèche"
	RainAverage RainSeverity = "Année Normale"
	RainVeryWet RainSeverity = "Année très pluvieuse"
)

// MajorEpisode flags years where both axes exceed their top threshold.
type MajorEpisode string

const (
	MajorNone    MajorEpisode = "Normal"
	MajorCyclone MajorEpisode = "Episode Cyclonique Majeur"
)

// SeverityClassification is the label set attached to one year.
type SeverityClassification struct {
	Year      int          `json:"year"`
	WindValue float64      `json:"wind_value"`
	RainValue float64      `json:"rain_value"`
	Wind      WindSeverity `json:"wind_severity"`
	Rain      RainSeverity `json:"rain_severity"`
	Major     MajorEpisode `json:"major_episode"`
}

// Thresholds are the strict lower bounds of each severity label.
// The rain values are kept as configured constants; they are not asserted to be
// physically meaningful annual totals.
type Thresholds struct {
	WindCyclone      float64 `json:"wind_cyclone"`
	WindViolentStorm float64 `json:"wind_violent_storm"`
	WindStorm        float64 `json:"wind_storm"`
	RainVeryWet      float64 `json:"rain_very_wet"`
	RainAverage      float64 `json:"rain_average"`
	RainDry          float64 `json:"rain_dry"`
}

// DefaultThresholds returns the thresholds used by the dashboards.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindCyclone:      32.7,
		WindViolentStorm: 28.5,
		WindStorm:        24.5,
		RainVeryWet:      5000,
		RainAverage:      3000,
		RainDry:          1000,
	}
}

// Validate checks that every threshold is finite and each axis is strictly descending.
func (t Thresholds) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"wind cyclone", t.WindCyclone},
		{"wind violent storm", t.WindViolentStorm},
		{"wind storm", t.WindStorm},
		{"rain very wet", t.RainVeryWet},
		{"rain average", t.RainAverage},
		{"rain dry", t.RainDry},
	} {
		if err := checkFinite(f.name+" threshold", f.v); err != nil {
			return err
		}
	}
	if !(t.WindCyclone > t.WindViolentStorm && t.WindViolentStorm > t.WindStorm) {
		return errors.New("wind thresholds must be strictly descending: cyclone > violent storm > storm")
	}
	if !(t.RainVeryWet > t.RainAverage && t.RainAverage > t.RainDry) {
		return errors.New("rain thresholds must be strictly descending: very wet > average > dry")
	}
	return nil
}

// Classifier maps wind and rain intensity metrics to severity labels.
type Classifier struct {
	t Thresholds
}

// NewClassifier validates the thresholds and returns a Classifier.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("classifier thresholds: %w", err)
	}
	return &Classifier{t: t}, nil
}

// Thresholds returns the configured thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.t
}

// Classify labels a wind-intensity-day metric and a maximum-rainfall metric.
// Comparisons are strict and evaluated top-down; the first match wins.
func (c *Classifier) Classify(wind, rain float64) (SeverityClassification, error) {
	if err := checkFinite("wind", wind); err != nil {
		return SeverityClassification{}, err
	}
	if err := checkFinite("rain", rain); err != nil {
		return SeverityClassification{}, err
	}

	out := SeverityClassification{
		WindValue: wind,
		RainValue: rain,
		Wind:      c.windSeverity(wind),
		Rain:      c.rainSeverity(rain),
		Major:     MajorNone,
	}
	if wind > c.t.WindCyclone && rain > c.t.RainVeryWet {
		out.Major = MajorCyclone
	}
	return out, nil
}

func (c *Classifier) windSeverity(v float64) WindSeverity {
	switch {
	case v > c.t.WindCyclone:
		return WindCyclone
	case v > c.t.WindViolentStorm:
		return WindViolentStorm
	case v > c.t.WindStorm:
		return WindStorm
	default:
		return WindNormal
	}
}

func (c *Classifier) rainSeverity(v float64) RainSeverity {
	switch {
	case v > c.t.RainVeryWet:
		return RainVeryWet
	case v > c.t.RainAverage:
		return RainAverage
	case v > c.t.RainDry:
		return RainDryYear
	default:
		return RainNormal
	}
}

// ClassifyYears labels each yearly wind/rain row.
func (c *Classifier) ClassifyYears(years []WindRainYear) ([]SeverityClassification, error) {
	out := make([]SeverityClassification, 0, len(years))
	for _, y := range years {
		sc, err := c.Classify(y.WindDays, y.MaxRainfall)
		if err != nil {
			return nil, fmt.Errorf("classify year %d: %w", y.Year, err)
		}
		sc.Year = y.Year
		out = append(out, sc)
	}
	return out, nil
}

// DefaultRainEventMinDays is the detection criterion: more than one day above 100mm in the month.
const DefaultRainEventMinDays = 1.0

// DetectRainEvents keeps the months whose mean count of days above 100mm is
// strictly greater than minDays. Other months are excluded, not labelled.
func DetectRainEvents(months []RainfallMonth, minDays float64) []RainfallMonth {
	out := make([]RainfallMonth, 0, len(months))
	for _, m := range months {
		if m.DaysOver100mm > minDays {
			out = append(out, m)
		}
	}
	return out
}
