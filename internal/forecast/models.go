package forecast

import (
	"time"
)

// ForecastFlag marks a row as belonging to the past/present or the future
// relative to the run's reference date.
type ForecastFlag string

const (
	FlagCurrent  ForecastFlag = "current"
	FlagForecast ForecastFlag = "forecast"
)

const (
	// WindowDaysBack and WindowDaysAhead bound the daily forecast window
	// around the reference date. The air-quality window shares the same
	// start but never extends past the reference date.
	WindowDaysBack  = 7
	WindowDaysAhead = 7

	// WindowDays is the total number of rows produced per location.
	WindowDays = WindowDaysBack + 1 + WindowDaysAhead
)

// Location is a tracked city. The set is fixed at startup and never
// persisted on its own; name is the unique key.
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

// Row is one (city, date) entry of the combined dataset. Pointer fields are
// nullable: a nil value is written as an empty CSV cell and marshals to
// JSON null.
type Row struct {
	Date           time.Time    `json:"date"`
	Day            string       `json:"day"`
	WeatherCode    int          `json:"weather_code"`
	Weather        *string      `json:"weather"`
	TemperatureMax float64      `json:"temperature_max"`
	TemperatureMin float64      `json:"temperature_min"`
	RainProb       *float64     `json:"rain_prob"`
	PM25           *float64     `json:"pm2_5"`
	USAQI          *float64     `json:"us_aqi"`
	City           string       `json:"City"`
	Lat            float64      `json:"lat"`
	Lon            float64      `json:"lon"`
	ForecastFlag   ForecastFlag `json:"forecast_flag"`
	USAQIStatus    string       `json:"us_aqi_status"`
}

// DailyForecast is the normalized daily forecast for one location, as
// parallel arrays ordered by date. All slices have equal length; RainProb
// entries may be nil when the upstream reports no probability for a day.
type DailyForecast struct {
	Dates    []time.Time
	Codes    []int
	TempMax  []float64
	TempMin  []float64
	RainProb []*float64
}

// HourlySample is one hourly air-quality reading. Either metric may be nil
// when the upstream reports a null sample.
type HourlySample struct {
	Time  time.Time
	PM25  *float64
	USAQI *float64
}

// weatherLabels maps Open-Meteo WMO weather codes to short display phrases.
var weatherLabels = map[int]string{
	0:  "Clear",
	1:  "Mainly Clear",
	2:  "Partly Cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Rime Fog",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Heavy Drizzle",
	56: "Light Freezing Drizzle",
	57: "Freezing Drizzle",
	61: "Light Rain",
	63: "Rain",
	65: "Heavy Rain",
	66: "Light Freezing Rain",
	67: "Freezing Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	77: "Snow Grains",
	80: "Light Showers",
	81: "Showers",
	82: "Heavy Showers",
	85: "Light Snow Showers",
	86: "Snow Showers",
	95: "Thunderstorm",
	96: "Thunderstorm with Hail",
	99: "Heavy Thunderstorm with Hail",
}

// WeatherLabel returns the display phrase for a weather code, or nil for
// codes outside the known table.
func WeatherLabel(code int) *string {
	label, ok := weatherLabels[code]
	if !ok {
		return nil
	}
	return &label
}

// AQI status bands, inclusive upper bounds applied in order.
const (
	StatusGood               = "Good"
	StatusModerate           = "Moderate"
	StatusUnhealthySensitive = "Unhealthy for Sensitive Groups"
	StatusUnhealthy          = "Unhealthy"
	StatusVeryUnhealthy      = "Very Unhealthy"
	StatusHazardous          = "Hazardous"
	StatusNA                 = "N/A"
)

// AQIStatus maps a US AQI value to its status band. A nil value means the
// metric is unavailable and maps to "N/A".
func AQIStatus(usAQI *float64) string {
	if usAQI == nil {
		return StatusNA
	}
	switch v := *usAQI; {
	case v <= 50:
		return StatusGood
	case v <= 100:
		return StatusModerate
	case v <= 150:
		return StatusUnhealthySensitive
	case v <= 200:
		return StatusUnhealthy
	case v <= 300:
		return StatusVeryUnhealthy
	default:
		return StatusHazardous
	}
}

// StatusColors is the fixed display palette for the six AQI bands. "N/A"
// rows carry no color.
var StatusColors = map[string]string{
	StatusGood:               "#90EE90",
	StatusModerate:           "#FFFF00",
	StatusUnhealthySensitive: "#FFA500",
	StatusUnhealthy:          "#FF0000",
	StatusVeryUnhealthy:      "#800080",
	StatusHazardous:          "#808080",
}

// Midnight truncates a timestamp to its calendar date in UTC. All dates in
// the dataset are midnight-UTC values so they compare with ==.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
