// internal/storage/memory/memory_test.go
package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/storage"
	"github.com/OCAP2/terrain/pkg/core"
)

// Verify Source implements storage.Source interface
var _ storage.Source = (*Source)(nil)

// Verify Source implements storage.Importer interface
var _ storage.Importer = (*Source)(nil)

func testDataset(t *testing.T, name string) *storage.Dataset {
	t.Helper()
	g, err := grid.New(2, 2, core.PlanarCoord{}, 10, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("grid.New failed: %v", err)
	}
	return &storage.Dataset{Name: name, EPSG: 27700, Grid: g}
}

func TestNew(t *testing.T) {
	s := New(testDataset(t, "a"))

	if s == nil {
		t.Fatal("New returned nil")
	}
	if len(s.datasets) != 1 {
		t.Errorf("expected 1 dataset, got %d", len(s.datasets))
	}
}

func TestInitAndClose(t *testing.T) {
	s := New()

	if err := s.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New()
	d := testDataset(t, "alps")

	if err := s.SaveDataset(d); err != nil {
		t.Fatalf("SaveDataset failed: %v", err)
	}
	got, err := s.LoadDataset("alps")
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if got != d {
		t.Error("expected the saved dataset back")
	}
}

func TestLoadMissing(t *testing.T) {
	s := New()

	_, err := s.LoadDataset("nope")
	if !errors.Is(err, storage.ErrDatasetNotFound) {
		t.Errorf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestSaveRejectsIncomplete(t *testing.T) {
	s := New()

	if err := s.SaveDataset(nil); err == nil {
		t.Error("expected error for nil dataset")
	}
	if err := s.SaveDataset(&storage.Dataset{Name: "x"}); err == nil {
		t.Error("expected error for dataset without grid")
	}
}

func TestListDatasetsSorted(t *testing.T) {
	s := New(testDataset(t, "c"), testDataset(t, "a"), testDataset(t, "b"))

	names, err := s.ListDatasets()
	if err != nil {
		t.Fatalf("ListDatasets failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	d := testDataset(t, "shared")
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SaveDataset(d)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.ListDatasets()
			_, _ = s.LoadDataset("shared")
		}()
	}
	wg.Wait()

	if _, err := s.LoadDataset("shared"); err != nil {
		t.Errorf("LoadDataset failed: %v", err)
	}
}
