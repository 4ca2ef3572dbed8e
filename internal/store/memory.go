package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/microdashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshots are recorded for a location.
	ErrNotFound = errors.New("no weather history for location")
)

// SnapshotHistory holds accepted snapshots for one location, oldest first.
type SnapshotHistory struct {
	Snapshots []weather.WeatherSnapshot
}

// MemoryStore is a concurrency-safe in-memory history of accepted weather
// snapshots. The scheduler writes; the web API reads.
type MemoryStore struct {
	mu sync.RWMutex

	// key: weather.Coordinates.Key()
	data map[string]*SnapshotHistory

	maxHistory int           // max snapshots per location, <= 0 unlimited
	maxAge     time.Duration // drop snapshots older than this, <= 0 keeps all
	now        func() time.Time
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore with the given retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends an accepted snapshot and enforces retention.
// Never-populated snapshots are ignored.
func (s *MemoryStore) SaveSnapshot(key string, snapshot weather.WeatherSnapshot) {
	if !snapshot.Valid {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots); i++ {
			if !history.Snapshots[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(key string) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a location fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(key string, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.WeatherSnapshot
	for _, snap := range history.Snapshots {
		if !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// Len returns the number of snapshots held for key.
func (s *MemoryStore) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.data[key]; ok {
		return len(h.Snapshots)
	}
	return 0
}
