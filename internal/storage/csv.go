package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"weather-dashboard/internal/forecast"
)

// Header is the dataset schema. Column order and presence are stable across
// runs regardless of which locations succeeded; the presentation layer
// depends on it.
var Header = []string{
	"date",
	"weather_code",
	"temperature_max",
	"temperature_min",
	"rain_prob",
	"day",
	"weather",
	"pm2_5",
	"us_aqi",
	"City",
	"lat",
	"lon",
	"forecast_flag",
	"us_aqi_status",
}

// CSVWriter persists the dataset to a flat CSV file, recreating it on every
// run.
type CSVWriter struct {
	filePath string
	logger   *slog.Logger
}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter(filePath string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// Name implements forecast.Sink.
func (w *CSVWriter) Name() string { return "csv" }

// WriteRows implements forecast.Sink: it overwrites the dataset file with
// the given rows.
func (w *CSVWriter) WriteRows(rows []forecast.Row) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := writeCSV(file, rows); err != nil {
		return err
	}

	w.logger.Info("dataset CSV written", "path", w.filePath, "rows", len(rows))
	return nil
}

// MarshalCSV renders rows as a CSV document with the standard header, used
// for the per-city download endpoint.
func MarshalCSV(rows []forecast.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSV(out io.Writer, rows []forecast.Row) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(encodeRow(row)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// encodeRow renders one row in Header order. Nil optional fields become
// empty cells.
func encodeRow(r forecast.Row) []string {
	return []string{
		r.Date.Format(time.DateOnly),
		strconv.Itoa(r.WeatherCode),
		formatFloat(r.TemperatureMax),
		formatFloat(r.TemperatureMin),
		formatFloatPtr(r.RainProb),
		r.Day,
		stringOrEmpty(r.Weather),
		formatFloatPtr(r.PM25),
		formatFloatPtr(r.USAQI),
		r.City,
		formatFloat(r.Lat),
		formatFloat(r.Lon),
		string(r.ForecastFlag),
		r.USAQIStatus,
	}
}

// ReadDataset parses a dataset CSV back into rows. The file must carry the
// standard header.
func ReadDataset(path string) ([]forecast.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset CSV %s is empty", path)
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	rows := make([]forecast.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := decodeRow(record)
		if err != nil {
			return nil, fmt.Errorf("dataset CSV row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func checkHeader(got []string) error {
	if len(got) != len(Header) {
		return fmt.Errorf("unexpected CSV header: %d columns, want %d", len(got), len(Header))
	}
	for i, name := range Header {
		if got[i] != name {
			return fmt.Errorf("unexpected CSV header: column %d is %q, want %q", i, got[i], name)
		}
	}
	return nil
}

func decodeRow(record []string) (forecast.Row, error) {
	var row forecast.Row
	if len(record) != len(Header) {
		return row, fmt.Errorf("expected %d columns, got %d", len(Header), len(record))
	}

	date, err := time.ParseInLocation(time.DateOnly, record[0], time.UTC)
	if err != nil {
		return row, fmt.Errorf("bad date %q: %w", record[0], err)
	}
	code, err := strconv.Atoi(record[1])
	if err != nil {
		return row, fmt.Errorf("bad weather_code %q: %w", record[1], err)
	}
	tempMax, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return row, fmt.Errorf("bad temperature_max %q: %w", record[2], err)
	}
	tempMin, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return row, fmt.Errorf("bad temperature_min %q: %w", record[3], err)
	}
	rainProb, err := parseFloatPtr(record[4])
	if err != nil {
		return row, fmt.Errorf("bad rain_prob %q: %w", record[4], err)
	}
	pm25, err := parseFloatPtr(record[7])
	if err != nil {
		return row, fmt.Errorf("bad pm2_5 %q: %w", record[7], err)
	}
	usAQI, err := parseFloatPtr(record[8])
	if err != nil {
		return row, fmt.Errorf("bad us_aqi %q: %w", record[8], err)
	}
	lat, err := strconv.ParseFloat(record[10], 64)
	if err != nil {
		return row, fmt.Errorf("bad lat %q: %w", record[10], err)
	}
	lon, err := strconv.ParseFloat(record[11], 64)
	if err != nil {
		return row, fmt.Errorf("bad lon %q: %w", record[11], err)
	}

	row = forecast.Row{
		Date:           date,
		WeatherCode:    code,
		TemperatureMax: tempMax,
		TemperatureMin: tempMin,
		RainProb:       rainProb,
		Day:            record[5],
		PM25:           pm25,
		USAQI:          usAQI,
		City:           record[9],
		Lat:            lat,
		Lon:            lon,
		ForecastFlag:   forecast.ForecastFlag(record[12]),
		USAQIStatus:    record[13],
	}
	if record[6] != "" {
		weather := record[6]
		row.Weather = &weather
	}
	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func parseFloatPtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
