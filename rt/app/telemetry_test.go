package app

import (
	"bytes"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameTelemetryFlushes(t *testing.T) {
	var out bytes.Buffer
	id := uuid.New()
	tel := NewFrameTelemetry(&out, id, 2)

	require.NoError(t, tel.Record(FrameRecord{Frame: 0, Bundles: 16, Rebuilt: true}))
	assert.Zero(t, out.Len())
	require.NoError(t, tel.Record(FrameRecord{Frame: 1, Skipped: true}))
	require.NoError(t, tel.Record(FrameRecord{Frame: 2, Locked: true}))
	require.NoError(t, tel.Flush())
	require.NoError(t, tel.Flush())

	var rows []FrameRecord
	require.NoError(t, gocsv.UnmarshalString(out.String(), &rows))
	require.Len(t, rows, 3, "one header, no duplicates")
	for i, r := range rows {
		assert.Equal(t, id.String(), r.RunID)
		assert.Equal(t, i, r.Frame)
	}
	assert.True(t, rows[0].Rebuilt)
	assert.Equal(t, 16, rows[0].Bundles)
	assert.True(t, rows[1].Skipped)
	assert.True(t, rows[2].Locked)
}

func TestNilFrameTelemetry(t *testing.T) {
	var tel *FrameTelemetry
	assert.NoError(t, tel.Record(FrameRecord{}))
	assert.NoError(t, tel.Flush())
}
