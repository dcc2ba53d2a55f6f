package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultOpenWeatherURL is the public OpenWeather API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org"

// OpenWeather is a Lookup backed by the OpenWeather current-weather API in
// metric units.
type OpenWeather struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// OpenWeatherOption configures an OpenWeather lookup.
type OpenWeatherOption func(*OpenWeather)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) OpenWeatherOption {
	return func(o *OpenWeather) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) OpenWeatherOption {
	return func(o *OpenWeather) { o.client = c }
}

// NewOpenWeather creates an OpenWeather lookup for apiKey.
func NewOpenWeather(apiKey string, opts ...OpenWeatherOption) *OpenWeather {
	o := &OpenWeather{baseURL: DefaultOpenWeatherURL, apiKey: apiKey, client: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type currentWeather struct {
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Fetch implements Lookup.
func (o *OpenWeather) Fetch(ctx context.Context, location string) (Reading, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", o.apiKey)
	q.Set("units", "metric")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return Reading{}, fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("weather: fetch %q: %w", location, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Reading{}, fmt.Errorf("weather: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("weather: fetch %q: status %d", location, resp.StatusCode)
	}

	var cw currentWeather
	if err := json.Unmarshal(body, &cw); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if cw.Main == nil || cw.Main.Temp == nil {
		return Reading{}, fmt.Errorf("%w: missing main.temp", ErrMalformed)
	}
	r := Reading{TemperatureC: *cw.Main.Temp}
	if len(cw.Weather) > 0 {
		r.Condition = cw.Weather[0].Main
	}
	return r, nil
}

var _ Lookup = (*OpenWeather)(nil)
