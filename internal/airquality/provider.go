package airquality

import (
	"context"
)

// Provider abstracts an air-quality data source (e.g. OpenWeatherMap).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Reading, error)
}
