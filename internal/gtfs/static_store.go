package gtfs

import (
	"sync"

	"tubestats.onebusaway.org/internal/models"
)

// StaticStore is a thread-safe in-memory store for parsed GTFS static
// bundles, indexed by the path or URL they were loaded from.
type StaticStore struct {
	mu   sync.RWMutex
	data map[string]*models.StaticData
}

// NewStaticStore initializes and returns a new instance of StaticStore.
// The underlying map is lazily initialized on first use in Set.
func NewStaticStore() *StaticStore {
	return &StaticStore{}
}

// Set stores the static data loaded from source, replacing any earlier load.
func (s *StaticStore) Set(source string, newData *models.StaticData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]*models.StaticData)
	}
	s.data[source] = newData
}

// Get retrieves the static data loaded from source.
func (s *StaticStore) Get(source string) (*models.StaticData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, exists := s.data[source]
	return data, exists
}
