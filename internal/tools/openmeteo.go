package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// OpenMeteo is a client for the open-meteo geocoding and forecast APIs.
// Neither needs a key.
type OpenMeteo struct {
	geocodingURL string
	forecastURL  string
	http         *http.Client
}

func NewOpenMeteo(geocodingURL, forecastURL string, timeout time.Duration) *OpenMeteo {
	if geocodingURL == "" {
		geocodingURL = defaultGeocodingURL
	}
	if forecastURL == "" {
		forecastURL = defaultForecastURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenMeteo{
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		http:         &http.Client{Timeout: timeout},
	}
}

type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
	Timezone  string
}

type Conditions struct {
	Temperature float64
	WindSpeed   float64
	WeatherCode int
}

// Geocode resolves name to its best match. Zero matches is ErrCityNotFound.
func (o *OpenMeteo) Geocode(ctx context.Context, name string) (Place, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "es")
	q.Set("format", "json")

	body, err := o.get(ctx, o.geocodingURL, q)
	if err != nil {
		return Place{}, fmt.Errorf("geocoding %q: %w", name, err)
	}

	hit := gjson.GetBytes(body, "results.0")
	if !hit.Exists() {
		return Place{}, ErrCityNotFound
	}
	display := hit.Get("name").String()
	if country := hit.Get("country").String(); country != "" {
		display += ", " + country
	}
	return Place{
		Name:      display,
		Latitude:  hit.Get("latitude").Float(),
		Longitude: hit.Get("longitude").Float(),
		Timezone:  hit.Get("timezone").String(),
	}, nil
}

// Current fetches current conditions at the given coordinates.
func (o *OpenMeteo) Current(ctx context.Context, lat, lon float64) (Conditions, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,weather_code,wind_speed_10m")
	q.Set("timezone", "auto")

	body, err := o.get(ctx, o.forecastURL, q)
	if err != nil {
		return Conditions{}, fmt.Errorf("forecast: %w", err)
	}

	cur := gjson.GetBytes(body, "current")
	if !cur.Exists() {
		return Conditions{}, fmt.Errorf("forecast: response has no current conditions")
	}
	return Conditions{
		Temperature: cur.Get("temperature_2m").Float(),
		WindSpeed:   cur.Get("wind_speed_10m").Float(),
		WeatherCode: int(cur.Get("weather_code").Int()),
	}, nil
}

func (o *OpenMeteo) get(ctx context.Context, base string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "copiloto/1.0")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 200))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON response")
	}
	return body, nil
}
