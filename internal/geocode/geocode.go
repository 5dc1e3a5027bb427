package geocode

import (
	"fmt"
	"log"

	"github.com/kelvins/geocoder"

	"github.com/airaware/aqibot/internal/airquality"
)

// Resolver fills in coordinates for cities declared without them, using the
// Google geocoding API behind kelvins/geocoder.
type Resolver struct {
	enabled bool
}

// New creates a Resolver. With an empty API key the resolver is disabled and
// unresolved cities are dropped.
func New(apiKey string) *Resolver {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &Resolver{enabled: apiKey != ""}
}

// Resolve returns the locations that have (or could be given) coordinates.
// Cities that cannot be resolved are logged and skipped rather than failing
// the whole startup.
func (r *Resolver) Resolve(locs []airquality.Location) []airquality.Location {
	resolved := make([]airquality.Location, 0, len(locs))

	for _, loc := range locs {
		if loc.HasCoordinates() {
			resolved = append(resolved, loc)
			continue
		}

		if !r.enabled {
			log.Printf("geocode: skipping %s: no coordinates configured and GEOCODER_API_KEY not set", loc.Name)
			continue
		}

		coords, err := lookup(loc.Name)
		if err != nil {
			log.Printf("geocode: skipping %s: %v", loc.Name, err)
			continue
		}

		loc.Lat = &coords.Latitude
		loc.Lon = &coords.Longitude
		resolved = append(resolved, loc)
	}

	return resolved
}

func lookup(city string) (geocoder.Location, error) {
	address := geocoder.Address{City: city}
	coords, err := geocoder.Geocoding(address)
	if err != nil {
		return geocoder.Location{}, fmt.Errorf("geocoding %q: %w", city, err)
	}
	return coords, nil
}
