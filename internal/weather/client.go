// internal/weather/client.go
//
// Forecast API client.
//
// Context
// -------
// The digest fetches a 3-day forecast per primary neighborhood: daily
// max/min temperature, precipitation and snowfall sums, hourly precipitation
// probability, and the current temperature.  The wire shape follows the
// Open-Meteo forecast endpoint (parallel arrays keyed by timestamp).
//
// The fetch is always optional: callers treat any error as a degraded
// condition and fall back to a digest without weather.
//
// Notes
// -----
// • Requests honor ctx so an abandoned assembly cancels its fetch.
// • Oxford commas, two spaces after periods.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client fetches forecasts over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewClient builds a forecast client.  baseURL points at the API root, e.g.
// "https://api.open-meteo.com".
func NewClient(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch returns the 3-day forecast for the given coordinates, with all
// timestamps interpreted in tz.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, tz string) (*Forecast, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", tz, err)
	}

	params := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', 4, 64)},
		"timezone":      {tz},
		"forecast_days": {"3"},
		"daily":         {"temperature_2m_max,temperature_2m_min,precipitation_sum,snowfall_sum"},
		"hourly":        {"precipitation_probability"},
		"current":       {"temperature_2m"},
	}
	u := c.baseURL + "/v1/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("forecast API error: status %d: %s", resp.StatusCode, body)
	}

	var wire response
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return wire.toForecast(loc)
}

// Forecast API response types (parallel arrays, Open-Meteo shape).

type response struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
	} `json:"current"`
	Daily struct {
		Time           []string  `json:"time"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		Precipitation  []float64 `json:"precipitation_sum"`
		Snowfall       []float64 `json:"snowfall_sum"`
	} `json:"daily"`
	Hourly struct {
		Time          []string  `json:"time"`
		Precipitation []float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

func (r *response) toForecast(loc *time.Location) (*Forecast, error) {
	f := &Forecast{CurrentC: r.Current.Temperature}

	for i, ts := range r.Daily.Time {
		date, err := time.ParseInLocation("2006-01-02", ts, loc)
		if err != nil {
			return nil, fmt.Errorf("parse daily time %q: %w", ts, err)
		}
		day := Day{Date: date}
		if i < len(r.Daily.TemperatureMax) {
			day.MaxC = r.Daily.TemperatureMax[i]
		}
		if i < len(r.Daily.TemperatureMin) {
			day.MinC = r.Daily.TemperatureMin[i]
		}
		if i < len(r.Daily.Precipitation) {
			day.PrecipMM = r.Daily.Precipitation[i]
		}
		if i < len(r.Daily.Snowfall) {
			day.SnowCM = r.Daily.Snowfall[i]
		}
		f.Days = append(f.Days, day)
	}

	for i, ts := range r.Hourly.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", ts, loc)
		if err != nil {
			return nil, fmt.Errorf("parse hourly time %q: %w", ts, err)
		}
		var p float64
		if i < len(r.Hourly.Precipitation) {
			p = r.Hourly.Precipitation[i]
		}
		f.Hourly = append(f.Hourly, HourlyProb{Time: t, Probability: p})
	}

	return f, nil
}
