package report

import (
	"sync"

	"github.com/markuskkkl/dav-pimcore/internal/models"
)

// Store holds the latest collection result and its rendered HTML for the
// serve-mode HTTP endpoints. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	result   *models.CollectionResult
	rendered []byte
}

// NewStore creates an empty report store
func NewStore() *Store {
	return &Store{}
}

// Set replaces the stored result and its rendered HTML
func (s *Store) Set(result *models.CollectionResult, rendered []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	s.rendered = rendered
}

// Latest returns the most recent result, or nil before the first run
func (s *Store) Latest() *models.CollectionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// HTML returns the most recent rendered report, or nil before the first run
func (s *Store) HTML() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rendered
}
