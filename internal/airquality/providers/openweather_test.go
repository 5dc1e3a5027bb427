package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airaware/aqibot/internal/airquality"
)

func testLocation() airquality.Location {
	lat, lon := 28.704060, 77.102493
	return airquality.Location{Name: "Delhi", Lat: &lat, Lon: &lon}
}

func TestFetchParsesAirPollutionResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != "test-key" {
			t.Errorf("expected appid query parameter, got %q", q.Get("appid"))
		}
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Error("lat/lon query parameters are required")
		}
		_, _ = w.Write([]byte(`{
			"list": [{
				"dt": 1717236000,
				"main": {"aqi": 4},
				"components": {"pm2_5": 87.6, "pm10": 142.3, "no2": 40.1, "o3": 12.5}
			}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "test-key").WithBaseURL(srv.URL)

	reading, err := p.Fetch(context.Background(), testLocation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reading.AQIIndex != 4 {
		t.Errorf("aqi index: got %d, want 4", reading.AQIIndex)
	}
	if reading.PM25 != 87.6 || reading.PM10 != 142.3 {
		t.Errorf("unexpected particulates: pm2.5=%v pm10=%v", reading.PM25, reading.PM10)
	}
	if reading.Timestamp.Unix() != 1717236000 {
		t.Errorf("unexpected timestamp %v", reading.Timestamp)
	}
	if reading.ProviderName != "openweathermap" {
		t.Errorf("unexpected provider name %q", reading.ProviderName)
	}
}

func TestFetchEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": []}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "test-key").WithBaseURL(srv.URL)

	if _, err := p.Fetch(context.Background(), testLocation()); err == nil {
		t.Fatal("expected error for empty list")
	}
}

func TestFetchRequiresCoordinates(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "test-key")

	if _, err := p.Fetch(context.Background(), airquality.Location{Name: "Delhi"}); err == nil {
		t.Fatal("expected error for location without coordinates")
	}
}

func TestFetchRequiresAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")

	if _, err := p.Fetch(context.Background(), testLocation()); err == nil {
		t.Fatal("expected error without api key")
	}
}
