package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Fetcher abstracts the upstream weather data source (Open-Meteo in
// production, stubs in tests).
type Fetcher interface {
	// FetchDaily returns the daily forecast for the inclusive date range
	// [start, end].
	FetchDaily(ctx context.Context, loc Location, start, end time.Time) (*DailyForecast, error)

	// FetchAirQuality returns hourly air-quality samples for the inclusive
	// date range [start, end]. A (nil, nil) return means the upstream had
	// no air-quality data for the location, which is not an error.
	FetchAirQuality(ctx context.Context, loc Location, start, end time.Time) ([]HourlySample, error)
}

// BuildRows produces the complete ordered row window for one location: one
// row per day in [today-7d, today+7d]. The forecast call is fatal for the
// location; the air-quality call is best-effort and degrades to null
// air-quality columns. Never returns a partial row set.
func BuildRows(ctx context.Context, fetcher Fetcher, logger *slog.Logger, loc Location, today time.Time) ([]Row, error) {
	today = Midnight(today)
	start := today.AddDate(0, 0, -WindowDaysBack)
	end := today.AddDate(0, 0, WindowDaysAhead)

	daily, err := fetcher.FetchDaily(ctx, loc, start, end)
	if err != nil {
		return nil, fmt.Errorf("forecast fetch for %s: %w", loc.Name, err)
	}
	if err := checkWindow(daily, start); err != nil {
		return nil, fmt.Errorf("forecast response for %s: %w", loc.Name, err)
	}

	// Air quality only covers past days and today.
	samples, err := fetcher.FetchAirQuality(ctx, loc, start, today)
	if err != nil {
		logger.Warn("air quality fetch failed, continuing without it",
			"city", loc.Name, "error", err)
		samples = nil
	}
	airByDate := AggregateAirQuality(samples)

	rows := make([]Row, 0, WindowDays)
	for i, date := range daily.Dates {
		row := Row{
			Date:           date,
			Day:            date.Format("Mon"),
			WeatherCode:    daily.Codes[i],
			Weather:        WeatherLabel(daily.Codes[i]),
			TemperatureMax: daily.TempMax[i],
			TemperatureMin: daily.TempMin[i],
			RainProb:       daily.RainProb[i],
			City:           loc.Name,
			Lat:            loc.Lat,
			Lon:            loc.Lon,
			ForecastFlag:   FlagCurrent,
		}
		if date.After(today) {
			row.ForecastFlag = FlagForecast
		}

		// Left join: air-quality columns stay null where no aggregated
		// date matches, which covers every forecast-flagged date and any
		// trailing gap from a partial air-quality response.
		if day, ok := airByDate[date]; ok {
			row.PM25 = day.PM25
			row.USAQI = day.USAQI
		}
		row.USAQIStatus = AQIStatus(row.USAQI)

		rows = append(rows, row)
	}
	return rows, nil
}

// checkWindow verifies the daily response covers the requested window as a
// contiguous date sequence. Anything else would yield a partial or
// misaligned row set, which the pipeline must refuse.
func checkWindow(daily *DailyForecast, start time.Time) error {
	if len(daily.Dates) != WindowDays {
		return fmt.Errorf("expected %d days, got %d", WindowDays, len(daily.Dates))
	}
	if len(daily.Codes) != WindowDays || len(daily.TempMax) != WindowDays ||
		len(daily.TempMin) != WindowDays || len(daily.RainProb) != WindowDays {
		return fmt.Errorf("field arrays do not match %d dates", WindowDays)
	}
	for i, date := range daily.Dates {
		if want := start.AddDate(0, 0, i); !date.Equal(want) {
			return fmt.Errorf("dates not contiguous: position %d is %s, want %s",
				i, date.Format(time.DateOnly), want.Format(time.DateOnly))
		}
	}
	return nil
}
