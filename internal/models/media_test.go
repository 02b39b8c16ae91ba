package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityWritesZeroTMDB(t *testing.T) {
	data, err := json.Marshal(Identity{Simkl: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"simkl":7,"tmdb":0}`, string(data))
}

func TestMediaEntryKeepsBothIdentifiers(t *testing.T) {
	entry := MediaEntry{Title: "Film", Status: StatusCompleted, IDs: &Identity{Simkl: 1, TMDB: 2}}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"simkl": float64(1), "tmdb": float64(2)}, decoded["ids"])
}
