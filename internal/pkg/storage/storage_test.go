package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Both implementations must satisfy the same contract.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "shophub.db"))
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("k", payload{Name: "a", Count: 2}))

			var got payload
			require.NoError(t, s.Get("k", &got))
			assert.Equal(t, payload{Name: "a", Count: 2}, got)
			assert.True(t, s.Has("k"))
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var got payload
			assert.ErrorIs(t, s.Get("absent", &got), ErrNotFound)
			assert.False(t, s.Has("absent"))
		})
	}
}

func TestSetOverwrites(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("k", payload{Count: 1}))
			require.NoError(t, s.Set("k", payload{Count: 2}))

			var got payload
			require.NoError(t, s.Get("k", &got))
			assert.Equal(t, 2, got.Count)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("k", payload{}))
			require.NoError(t, s.Delete("k"))
			require.NoError(t, s.Delete("k")) // absent key is fine

			var got payload
			assert.ErrorIs(t, s.Get("k", &got), ErrNotFound)
		})
	}
}

func TestCorruptValueReturnsDecodeError(t *testing.T) {
	m := NewMemory()
	m.SetRaw("k", []byte("{not json"))

	var got payload
	err := m.Get("k", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
