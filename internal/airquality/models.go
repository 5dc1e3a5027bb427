package airquality

import (
	"time"
)

// Location represents a city whose air quality is tracked and posted.
// Name must be provided; coordinates may be resolved later by geocoding.
type Location struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Name
}

// HasCoordinates reports whether the location can be queried directly.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Reading is a normalized air-quality measurement for a location at a point
// in time. AQIIndex follows the OpenWeather 1..5 scale.
type Reading struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"` // always UTC

	AQIIndex int     `json:"aqiIndex"`
	PM25     float64 `json:"pm25"` // μg/m³
	PM10     float64 `json:"pm10"` // μg/m³
	NO2      float64 `json:"no2,omitempty"`
	O3       float64 `json:"o3,omitempty"`
}
