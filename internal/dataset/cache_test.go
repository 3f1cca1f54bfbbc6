package dataset

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"weather-dashboard/internal/forecast"
	"weather-dashboard/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDataset(t *testing.T, path string, rows []forecast.Row) {
	t.Helper()
	if err := storage.NewCSVWriter(path, testLogger()).WriteRows(rows); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
}

func makeRows(cities ...string) []forecast.Row {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var rows []forecast.Row
	for _, city := range cities {
		rows = append(rows, forecast.Row{
			Date:           date,
			Day:            "Mon",
			WeatherCode:    0,
			TemperatureMax: 20,
			TemperatureMin: 10,
			City:           city,
			ForecastFlag:   forecast.FlagCurrent,
			USAQIStatus:    forecast.StatusNA,
		})
	}
	return rows
}

func TestRowsMissingFile(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "missing.csv"), testLogger())

	_, err := cache.Rows()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestRowsReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	writeDataset(t, path, makeRows("Tokyo"))

	cache := NewCache(path, testLogger())
	rows, err := cache.Rows()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	// Rewrite with more rows and a bumped mtime; the cache must pick it up.
	writeDataset(t, path, makeRows("Tokyo", "Paris"))
	bumped := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, bumped, bumped); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	rows, err = cache.Rows()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows after change, want 2", len(rows))
	}
}

func TestRowsServesCachedCopyWhenUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	writeDataset(t, path, makeRows("Tokyo"))

	cache := NewCache(path, testLogger())
	first, err := cache.Rows()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.Rows()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if &first[0] != &second[0] {
		t.Fatal("unchanged file was re-parsed instead of served from cache")
	}
}

func TestCitiesSortedAndDistinct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	writeDataset(t, path, makeRows("Tokyo", "Paris", "Tokyo", "Bangkok"))

	cache := NewCache(path, testLogger())
	cities, err := cache.Cities()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Bangkok", "Paris", "Tokyo"}
	if len(cities) != len(want) {
		t.Fatalf("cities = %v, want %v", cities, want)
	}
	for i := range want {
		if cities[i] != want[i] {
			t.Fatalf("cities = %v, want %v", cities, want)
		}
	}
}

func TestCityRowsUnknownCity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	writeDataset(t, path, makeRows("Tokyo"))

	cache := NewCache(path, testLogger())
	_, err := cache.CityRows("Atlantis")
	if !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("err = %v, want ErrCityNotFound", err)
	}
}

func TestCityRowsFiltersByCity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	writeDataset(t, path, makeRows("Tokyo", "Paris", "Tokyo"))

	cache := NewCache(path, testLogger())
	rows, err := cache.CityRows("Tokyo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.City != "Tokyo" {
			t.Fatalf("foreign city in result: %q", r.City)
		}
	}
}
