package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/airaware/aqibot/internal/airquality"
)

var (
	// ErrNotFound is returned when no records exist for a given city.
	ErrNotFound = errors.New("no post records for city")
)

// PostRecord is the outcome of one per-city run: the reading that was
// fetched, the assessment, and what (if anything) was posted.
type PostRecord struct {
	ID         string                `json:"id"`
	Location   airquality.Location   `json:"location"`
	Reading    airquality.Reading    `json:"reading"`
	Assessment airquality.Assessment `json:"assessment"`
	Message    string                `json:"message"`
	PostText   string                `json:"postText"`
	PostID     string                `json:"postId,omitempty"`
	DryRun     bool                  `json:"dryRun"`
	PostedAt   time.Time             `json:"postedAt"` // always UTC
}

// recordHistory holds a time-ordered list of post records for a city.
type recordHistory struct {
	Records []PostRecord
}

// MemoryStore is a concurrency-safe in-memory history of post records.
// Nothing is persisted across process restarts; each run starts fresh.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*recordHistory

	// retention configuration
	maxHistory int           // max number of records per city
	maxAge     time.Duration // optional max age for records
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*recordHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveRecord appends a record for a city, assigning an ID when absent, and
// enforces retention. The stored record is returned.
func (s *MemoryStore) SaveRecord(loc airquality.Location, record PostRecord) PostRecord {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.PostedAt.IsZero() {
		record.PostedAt = time.Now().UTC()
	}

	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &recordHistory{}
		s.data[key] = history
	}

	history.Records = append(history.Records, record)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		history.Records = history.Records[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Records); i++ {
			if !history.Records[i].PostedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Records) {
			history.Records = history.Records[i:]
		}
	}

	return record
}

// GetLatest returns the most recent record for a city.
func (s *MemoryStore) GetLatest(loc airquality.Location) (PostRecord, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Records) == 0 {
		return PostRecord{}, ErrNotFound
	}
	return history.Records[len(history.Records)-1], nil
}

// GetRange returns all records for a city between from and to (inclusive).
func (s *MemoryStore) GetRange(loc airquality.Location, from, to time.Time) ([]PostRecord, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	var result []PostRecord
	for _, rec := range history.Records {
		if !rec.PostedAt.Before(from) && !rec.PostedAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
