package forecast

import (
	"sort"
	"time"
)

// airQualityDay holds the per-date aggregates of the hourly air-quality
// samples. Either metric is nil when no non-null sample existed for the
// date.
type airQualityDay struct {
	PM25  *float64
	USAQI *float64
}

// AggregateAirQuality buckets hourly samples by calendar date and reduces
// each metric to its median. The median resists single-hour spikes and
// sensor noise better than the mean. Null samples are skipped; a date whose
// samples are all null contributes a nil metric.
func AggregateAirQuality(samples []HourlySample) map[time.Time]airQualityDay {
	if len(samples) == 0 {
		return nil
	}

	pm25ByDate := make(map[time.Time][]float64)
	aqiByDate := make(map[time.Time][]float64)
	dates := make(map[time.Time]struct{})

	for _, s := range samples {
		date := Midnight(s.Time)
		dates[date] = struct{}{}
		if s.PM25 != nil {
			pm25ByDate[date] = append(pm25ByDate[date], *s.PM25)
		}
		if s.USAQI != nil {
			aqiByDate[date] = append(aqiByDate[date], *s.USAQI)
		}
	}

	out := make(map[time.Time]airQualityDay, len(dates))
	for date := range dates {
		out[date] = airQualityDay{
			PM25:  median(pm25ByDate[date]),
			USAQI: median(aqiByDate[date]),
		}
	}
	return out
}

// median returns the middle value of vals, averaging the two central values
// for an even count. Returns nil for an empty slice. The input is copied
// before sorting so repeated aggregation over the same samples is stable.
func median(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 1 {
		m = sorted[mid]
	} else {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}
