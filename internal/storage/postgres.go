package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"weather-dashboard/internal/forecast"
)

// PostgresWriter mirrors the dataset into a PostgreSQL table. It is an
// optional secondary sink; the CSV file remains the artifact of record.
type PostgresWriter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresWriter opens a connection pool and pings the database.
func NewPostgresWriter(connStr string, logger *slog.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return &PostgresWriter{db: db, logger: logger}, nil
}

// Name implements forecast.Sink.
func (w *PostgresWriter) Name() string { return "postgres" }

// CreateTable creates the dataset table if it does not exist.
func (w *PostgresWriter) CreateTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS daily_forecast (
		date            DATE         NOT NULL,
		weather_code    INTEGER      NOT NULL,
		temperature_max NUMERIC(6,2) NOT NULL,
		temperature_min NUMERIC(6,2) NOT NULL,
		rain_prob       NUMERIC(5,1),
		day             VARCHAR(3)   NOT NULL,
		weather         TEXT,
		pm2_5           NUMERIC(8,2),
		us_aqi          NUMERIC(8,2),
		city            TEXT         NOT NULL,
		lat             NUMERIC(9,4) NOT NULL,
		lon             NUMERIC(9,4) NOT NULL,
		forecast_flag   VARCHAR(10)  NOT NULL,
		us_aqi_status   TEXT         NOT NULL,
		PRIMARY KEY (city, date)
	);

	CREATE INDEX IF NOT EXISTS idx_daily_forecast_date ON daily_forecast (date);
	`
	if _, err := w.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	w.logger.Info("table 'daily_forecast' is ready")
	return nil
}

// WriteRows implements forecast.Sink: it replaces the previous run's rows
// in a single transaction. The dataset is rebuilt wholesale each run, never
// patched in place.
func (w *PostgresWriter) WriteRows(rows []forecast.Row) (err error) {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM daily_forecast`); err != nil {
		return fmt.Errorf("failed to clear previous run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_forecast (
			date, weather_code, temperature_max, temperature_min, rain_prob,
			day, weather, pm2_5, us_aqi, city, lat, lon, forecast_flag, us_aqi_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err = stmt.Exec(
			r.Date,
			r.WeatherCode,
			r.TemperatureMax,
			r.TemperatureMin,
			nullFloat(r.RainProb),
			r.Day,
			nullString(r.Weather),
			nullFloat(r.PM25),
			nullFloat(r.USAQI),
			r.City,
			r.Lat,
			r.Lon,
			string(r.ForecastFlag),
			r.USAQIStatus,
		)
		if err != nil {
			return fmt.Errorf("failed to insert row for %s %s: %w",
				r.City, r.Date.Format(time.DateOnly), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("dataset mirrored to PostgreSQL", "rows", len(rows))
	return nil
}

// Close closes the database connection.
func (w *PostgresWriter) Close() {
	if w.db != nil {
		_ = w.db.Close()
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
