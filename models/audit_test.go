package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSnapshotRoundTrip(t *testing.T) {
	snap := StateSnapshot{
		"deleted_at":        "2026-08-29T12:00:00Z",
		"deleted_by_id":     float64(3),
		"last_admin_action": nil,
	}

	value, err := snap.Value()
	require.NoError(t, err)

	var decoded StateSnapshot
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, snap, decoded)
}

func TestStateSnapshotScanString(t *testing.T) {
	var snap StateSnapshot
	require.NoError(t, snap.Scan(`{"reason":"duplicate"}`))
	assert.Equal(t, "duplicate", snap["reason"])
}

func TestStateSnapshotScanNil(t *testing.T) {
	var snap StateSnapshot
	require.NoError(t, snap.Scan(nil))
	assert.Nil(t, snap)
}
