package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/airaware/aqibot/internal/airquality"
	"github.com/airaware/aqibot/internal/publisher"
	"github.com/airaware/aqibot/internal/store"
)

type stubProvider struct {
	readings map[string]airquality.Reading
	errs     map[string]error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(_ context.Context, loc airquality.Location) (airquality.Reading, error) {
	if err, ok := p.errs[loc.Name]; ok {
		return airquality.Reading{}, err
	}
	r := p.readings[loc.Name]
	r.ProviderName = "stub"
	r.Timestamp = time.Now().UTC()
	return r, nil
}

type stubGenerator struct {
	msg string
	err error
}

func (g *stubGenerator) CareMessage(_ context.Context, _ airquality.Category) (string, error) {
	return g.msg, g.err
}

type stubPublisher struct {
	posts []string
	err   error
}

func (p *stubPublisher) Post(_ context.Context, text string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.posts = append(p.posts, text)
	return "post-1", nil
}

func locations(names ...string) []airquality.Location {
	lat, lon := 28.7, 77.1
	locs := make([]airquality.Location, 0, len(names))
	for _, n := range names {
		locs = append(locs, airquality.Location{Name: n, Lat: &lat, Lon: &lon})
	}
	return locs
}

func TestRunCityStoresRecord(t *testing.T) {
	locs := locations("Delhi")
	pub := &stubPublisher{}
	svc := NewService(
		store.NewMemoryStore(10, 0),
		&stubProvider{readings: map[string]airquality.Reading{"Delhi": {AQIIndex: 3, PM25: 40, PM10: 80}}},
		&stubGenerator{msg: "Limit outdoor exertion. #AQI"},
		map[string]publisher.Publisher{"Delhi": pub},
		locs,
		false,
	)

	rec, err := svc.RunCity(context.Background(), locs[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Assessment.Category != airquality.CategoryModerate {
		t.Errorf("unexpected category %q", rec.Assessment.Category)
	}
	if rec.PostID != "post-1" {
		t.Errorf("unexpected post id %q", rec.PostID)
	}
	if len(pub.posts) != 1 || !strings.Contains(pub.posts[0], "Limit outdoor exertion.") {
		t.Errorf("published text missing care message: %v", pub.posts)
	}

	latest, err := svc.GetLatest(locs[0])
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if latest.ID != rec.ID {
		t.Errorf("stored record id %q, want %q", latest.ID, rec.ID)
	}
}

func TestRunCityFallsBackWhenGeneratorFails(t *testing.T) {
	locs := locations("Delhi")
	pub := &stubPublisher{}
	svc := NewService(
		store.NewMemoryStore(10, 0),
		&stubProvider{readings: map[string]airquality.Reading{"Delhi": {AQIIndex: 5, PM25: 120, PM10: 200}}},
		&stubGenerator{err: errors.New("quota exhausted")},
		map[string]publisher.Publisher{"Delhi": pub},
		locs,
		false,
	)

	rec, err := svc.RunCity(context.Background(), locs[0])
	if err != nil {
		t.Fatalf("generator failure must not fail the run: %v", err)
	}
	if !strings.Contains(rec.Message, "Stay indoors") {
		t.Errorf("expected the canned Very Poor message, got %q", rec.Message)
	}
}

func TestRunCityDuplicateIsRecorded(t *testing.T) {
	locs := locations("Delhi")
	svc := NewService(
		store.NewMemoryStore(10, 0),
		&stubProvider{readings: map[string]airquality.Reading{"Delhi": {AQIIndex: 1, PM25: 5, PM10: 10}}},
		&stubGenerator{msg: "Enjoy the air."},
		map[string]publisher.Publisher{"Delhi": &stubPublisher{err: publisher.ErrDuplicate}},
		locs,
		false,
	)

	rec, err := svc.RunCity(context.Background(), locs[0])
	if err != nil {
		t.Fatalf("duplicate must not fail the run: %v", err)
	}
	if rec.PostID != "" {
		t.Errorf("duplicate record should have no post id, got %q", rec.PostID)
	}
}

func TestRunAllIsolatesCityFailures(t *testing.T) {
	locs := locations("Delhi", "Mumbai")
	svc := NewService(
		store.NewMemoryStore(10, 0),
		&stubProvider{
			readings: map[string]airquality.Reading{"Mumbai": {AQIIndex: 2, PM25: 15, PM10: 30}},
			errs:     map[string]error{"Delhi": errors.New("provider down")},
		},
		&stubGenerator{msg: "ok"},
		map[string]publisher.Publisher{"Delhi": &stubPublisher{}, "Mumbai": &stubPublisher{}},
		locs,
		false,
	)

	if err := svc.RunAll(context.Background()); err != nil {
		t.Fatalf("one healthy city should keep the run green: %v", err)
	}

	if _, err := svc.GetLatest(locs[1]); err != nil {
		t.Errorf("mumbai record missing: %v", err)
	}
	if _, err := svc.GetLatest(locs[0]); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delhi should have no record, got %v", err)
	}
}

func TestRunAllFailsWhenEveryCityFails(t *testing.T) {
	locs := locations("Delhi")
	svc := NewService(
		store.NewMemoryStore(10, 0),
		&stubProvider{errs: map[string]error{"Delhi": errors.New("provider down")}},
		&stubGenerator{msg: "ok"},
		map[string]publisher.Publisher{"Delhi": &stubPublisher{}},
		locs,
		false,
	)

	if err := svc.RunAll(context.Background()); err == nil {
		t.Fatal("expected error when all cities fail")
	}
}

func TestRunAllNoCities(t *testing.T) {
	svc := NewService(store.NewMemoryStore(10, 0), &stubProvider{}, &stubGenerator{}, nil, nil, false)
	if err := svc.RunAll(context.Background()); err == nil {
		t.Fatal("expected error with no cities configured")
	}
}
