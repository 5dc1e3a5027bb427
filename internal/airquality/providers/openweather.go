package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/airaware/aqibot/internal/airquality"
	"github.com/airaware/aqibot/internal/httpx"
)

// OpenWeatherProvider implements the airquality.Provider interface using the
// OpenWeatherMap Air Pollution API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/air_pollution",
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// WithBaseURL overrides the API endpoint; used by tests.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc airquality.Location) (airquality.Reading, error) {
	if p.apiKey == "" {
		return airquality.Reading{}, fmt.Errorf("openweather api key is not configured")
	}
	if !loc.HasCoordinates() {
		return airquality.Reading{}, fmt.Errorf("air pollution api requires latitude and longitude for %s", loc.Name)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", *loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", *loc.Lon))
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := httpx.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components struct {
				PM25 float64 `json:"pm2_5"`
				PM10 float64 `json:"pm10"`
				NO2  float64 `json:"no2"`
				O3   float64 `json:"o3"`
			} `json:"components"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, err
	}

	if len(payload.List) == 0 {
		return airquality.Reading{}, fmt.Errorf("invalid air pollution response: empty list")
	}

	entry := payload.List[0]

	ts := time.Unix(entry.Dt, 0).UTC()
	if entry.Dt == 0 {
		ts = time.Now().UTC()
	}

	return airquality.Reading{
		ProviderName: p.name,
		Timestamp:    ts,
		AQIIndex:     entry.Main.AQI,
		PM25:         entry.Components.PM25,
		PM10:         entry.Components.PM10,
		NO2:          entry.Components.NO2,
		O3:           entry.Components.O3,
	}, nil
}
