package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish-engine/internal/config"
)

func TestNewDBReturnsLatchedError(t *testing.T) {
	// Burn the once with a failed first attempt; every later call must
	// surface that error instead of a (nil, nil) pair.
	once.Do(func() { initErr = errors.New("connection refused") })

	db, err := NewDB(&config.DatabaseConfig{})
	require.Error(t, err)
	assert.EqualError(t, err, "connection refused")
	assert.Nil(t, db)

	_, again := NewDB(&config.DatabaseConfig{})
	assert.Equal(t, err, again)
}
