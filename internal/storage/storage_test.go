// internal/storage/storage_test.go
package storage_test

import (
	"fmt"
	"testing"

	"github.com/OCAP2/terrain/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestErrDatasetNotFoundWraps(t *testing.T) {
	err := fmt.Errorf("dataset %q: %w", "alps", storage.ErrDatasetNotFound)
	assert.ErrorIs(t, err, storage.ErrDatasetNotFound)
	assert.Contains(t, err.Error(), "alps")
}
