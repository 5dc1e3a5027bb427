package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/airaware/aqibot/internal/airquality"
	"github.com/airaware/aqibot/internal/message"
	"github.com/airaware/aqibot/internal/publisher"
	"github.com/airaware/aqibot/internal/store"
)

// Store is the contract the in-memory store (and any future persistent
// store) must satisfy.
type Store interface {
	SaveRecord(loc airquality.Location, record store.PostRecord) store.PostRecord
	GetLatest(loc airquality.Location) (store.PostRecord, error)
	GetRange(loc airquality.Location, from, to time.Time) ([]store.PostRecord, error)
}

// Service runs the fetch-assess-generate-post pipeline for every configured
// city and records the outcomes.
type Service struct {
	store      Store
	provider   airquality.Provider
	generator  message.Generator
	publishers map[string]publisher.Publisher // by location key
	locations  []airquality.Location
	dryRun     bool
}

// NewService creates a new Service. publishers must hold one entry per
// location key.
func NewService(
	st Store,
	provider airquality.Provider,
	generator message.Generator,
	publishers map[string]publisher.Publisher,
	locations []airquality.Location,
	dryRun bool,
) *Service {
	return &Service{
		store:      st,
		provider:   provider,
		generator:  generator,
		publishers: publishers,
		locations:  locations,
		dryRun:     dryRun,
	}
}

// Locations returns the configured cities.
func (s *Service) Locations() []airquality.Location {
	return s.locations
}

// LocationByName finds a configured city by name.
func (s *Service) LocationByName(name string) (airquality.Location, bool) {
	for _, loc := range s.locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return airquality.Location{}, false
}

// RunAll executes the pipeline for every city concurrently. A city failure
// is logged and does not stop the others; the run as a whole fails only
// when no city succeeded.
func (s *Service) RunAll(ctx context.Context) error {
	if len(s.locations) == 0 {
		return fmt.Errorf("no cities configured")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.RunCity(ctx, loc); err != nil {
				log.Printf("run failed for %s: %v", loc.Key(), err)
				return
			}

			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succeeded == 0 {
		return fmt.Errorf("all %d cities failed", len(s.locations))
	}
	return nil
}

// RunCity executes the pipeline for a single city and stores the outcome.
func (s *Service) RunCity(ctx context.Context, loc airquality.Location) (store.PostRecord, error) {
	pub, ok := s.publishers[loc.Key()]
	if !ok {
		return store.PostRecord{}, fmt.Errorf("no publisher configured for %s", loc.Key())
	}

	reading, err := s.provider.Fetch(ctx, loc)
	if err != nil {
		return store.PostRecord{}, fmt.Errorf("fetch air quality: %w", err)
	}

	assessment := airquality.Assess(reading.AQIIndex, reading.PM25)

	care, err := s.generator.CareMessage(ctx, assessment.Category)
	if err != nil {
		// The post still goes out with the canned message.
		log.Printf("care message generation failed for %s, using fallback: %v", loc.Key(), err)
		care = message.Fallback(assessment.Category)
	}

	now := time.Now()
	text := message.Compose(loc, reading, assessment, care, now)

	postID, err := pub.Post(ctx, text)
	if err != nil {
		if errors.Is(err, publisher.ErrDuplicate) {
			// Retriggered run; keep the record so the history shows it.
			log.Printf("post for %s already exists, recording without id", loc.Key())
		} else {
			return store.PostRecord{}, fmt.Errorf("publish: %w", err)
		}
	}

	record := s.store.SaveRecord(loc, store.PostRecord{
		Location:   loc,
		Reading:    reading,
		Assessment: assessment,
		Message:    care,
		PostText:   text,
		PostID:     postID,
		DryRun:     s.dryRun,
		PostedAt:   now.UTC(),
	})

	return record, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc airquality.Location) (store.PostRecord, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc airquality.Location, from, to time.Time) ([]store.PostRecord, error) {
	return s.store.GetRange(loc, from, to)
}
