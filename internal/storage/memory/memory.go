// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/terrain/internal/storage"
)

// Source keeps datasets in process memory. It is the staging area for
// imports and a fixture store for tests.
type Source struct {
	datasets map[string]*storage.Dataset
	mu       sync.RWMutex
}

// New creates an empty memory source
func New(datasets ...*storage.Dataset) *Source {
	s := &Source{
		datasets: make(map[string]*storage.Dataset),
	}
	for _, d := range datasets {
		s.datasets[d.Name] = d
	}
	return s
}

// Init initializes the source
func (s *Source) Init() error {
	return nil
}

// Close cleans up resources
func (s *Source) Close() error {
	return nil
}

// LoadDataset returns the dataset stored under name.
func (s *Source) LoadDataset(name string) (*storage.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", name, storage.ErrDatasetNotFound)
	}
	return d, nil
}

// ListDatasets returns the stored names in ascending order.
func (s *Source) ListDatasets() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SaveDataset stores d, replacing any dataset of the same name.
func (s *Source) SaveDataset(d *storage.Dataset) error {
	if d == nil || d.Name == "" || d.Grid == nil {
		return fmt.Errorf("dataset needs a name and a grid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[d.Name] = d
	return nil
}
