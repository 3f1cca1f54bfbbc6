// Package openmeteo implements the forecast.Fetcher contract against the
// Open-Meteo forecast and air-quality HTTP APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"weather-dashboard/internal/forecast"
)

const (
	// DefaultForecastURL is the Open-Meteo daily forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	// DefaultAirQualityURL is the Open-Meteo air-quality endpoint.
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	dailyFields  = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_mean"
	hourlyFields = "pm2_5,us_aqi"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")

	// ErrMalformedResponse marks a response whose shape does not match the
	// documented schema (missing expected keys, mismatched parallel arrays).
	ErrMalformedResponse = errors.New("malformed response")
)

// Client calls the two Open-Meteo endpoints through per-endpoint circuit
// breakers. It performs a single attempt per call; failed locations are
// skipped upstream rather than retried.
type Client struct {
	httpClient    *http.Client
	forecastURL   string
	airQualityURL string
	forecastCB    *gobreaker.CircuitBreaker
	airQualityCB  *gobreaker.CircuitBreaker
}

// NewClient creates a Client against the production Open-Meteo endpoints.
func NewClient(httpClient *http.Client) *Client {
	return NewClientWithBaseURLs(httpClient, DefaultForecastURL, DefaultAirQualityURL)
}

// NewClientWithBaseURLs creates a Client with custom endpoint URLs, used by
// tests to point at local servers.
func NewClientWithBaseURLs(httpClient *http.Client, forecastURL, airQualityURL string) *Client {
	newBreaker := func(name string) *gobreaker.CircuitBreaker {
		return gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
	}
	return &Client{
		httpClient:    httpClient,
		forecastURL:   forecastURL,
		airQualityURL: airQualityURL,
		forecastCB:    newBreaker("openmeteo-forecast"),
		airQualityCB:  newBreaker("openmeteo-air-quality"),
	}
}

// forecastResponse mirrors the daily-forecast JSON schema. The parallel
// arrays under "daily" are keyed by requested field name.
type forecastResponse struct {
	Daily *struct {
		Time        []string   `json:"time"`
		WeatherCode []int      `json:"weather_code"`
		TempMax     []float64  `json:"temperature_2m_max"`
		TempMin     []float64  `json:"temperature_2m_min"`
		RainProb    []*float64 `json:"precipitation_probability_mean"`
	} `json:"daily"`
}

// airQualityResponse mirrors the air-quality JSON schema. "hourly" may be
// absent entirely, which means no data rather than an error.
type airQualityResponse struct {
	Hourly *struct {
		Time  []string   `json:"time"`
		PM25  []*float64 `json:"pm2_5"`
		USAQI []*float64 `json:"us_aqi"`
	} `json:"hourly"`
}

// FetchDaily implements forecast.Fetcher.
func (c *Client) FetchDaily(ctx context.Context, loc forecast.Location, start, end time.Time) (*forecast.DailyForecast, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("daily", dailyFields)
	values.Set("start_date", start.Format(time.DateOnly))
	values.Set("end_date", end.Format(time.DateOnly))
	values.Set("timezone", "auto")

	var payload forecastResponse
	if err := c.getJSON(ctx, c.forecastCB, c.forecastURL, values, &payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	if d == nil {
		return nil, fmt.Errorf("%w: missing daily block", ErrMalformedResponse)
	}
	n := len(d.Time)
	if len(d.WeatherCode) != n || len(d.TempMax) != n || len(d.TempMin) != n || len(d.RainProb) != n {
		return nil, fmt.Errorf("%w: daily arrays have mismatched lengths", ErrMalformedResponse)
	}

	out := &forecast.DailyForecast{
		Dates:    make([]time.Time, 0, n),
		Codes:    d.WeatherCode,
		TempMax:  d.TempMax,
		TempMin:  d.TempMin,
		RainProb: d.RainProb,
	}
	for _, raw := range d.Time {
		date, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: bad daily date %q", ErrMalformedResponse, raw)
		}
		out.Dates = append(out.Dates, date)
	}
	return out, nil
}

// FetchAirQuality implements forecast.Fetcher. An absent "hourly" block
// yields (nil, nil): no air-quality data, not an error.
func (c *Client) FetchAirQuality(ctx context.Context, loc forecast.Location, start, end time.Time) ([]forecast.HourlySample, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("hourly", hourlyFields)
	values.Set("start_date", start.Format(time.DateOnly))
	values.Set("end_date", end.Format(time.DateOnly))
	values.Set("timezone", "auto")

	var payload airQualityResponse
	if err := c.getJSON(ctx, c.airQualityCB, c.airQualityURL, values, &payload); err != nil {
		return nil, err
	}

	h := payload.Hourly
	if h == nil {
		return nil, nil
	}
	n := len(h.Time)
	if len(h.PM25) != n || len(h.USAQI) != n {
		return nil, fmt.Errorf("%w: hourly arrays have mismatched lengths", ErrMalformedResponse)
	}

	samples := make([]forecast.HourlySample, 0, n)
	for i, raw := range h.Time {
		ts, err := parseHourlyTime(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hourly time %q", ErrMalformedResponse, raw)
		}
		samples = append(samples, forecast.HourlySample{
			Time:  ts,
			PM25:  h.PM25[i],
			USAQI: h.USAQI[i],
		})
	}
	return samples, nil
}

// getJSON executes one GET through the endpoint's circuit breaker and
// decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, baseURL string, values url.Values, out any) error {
	u := fmt.Sprintf("%s?%s", baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// parseHourlyTime accepts the "2006-01-02T15:04" stamps the hourly API
// returns, falling back to RFC3339.
func parseHourlyTime(raw string) (time.Time, error) {
	if ts, err := time.ParseInLocation("2006-01-02T15:04", raw, time.UTC); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
