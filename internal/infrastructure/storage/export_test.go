package storage

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

func TestExportRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := []types.StoredActivity{
		{ID: 2, UserID: "u1", Action: "file_uploaded", Details: `{"fileName":"a.txt"}`, Timestamp: ts},
		{ID: 1, UserID: "u2", Action: "user_login", Timestamp: ts.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportActivities(&buf, rows))
	assert.Equal(t, []byte{0x1f, 0x8b}, buf.Bytes()[:2])

	got, err := ReadExport(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "file_uploaded", got[0].Action)
	assert.Equal(t, `{"fileName":"a.txt"}`, got[0].Details)
	assert.True(t, ts.Equal(got[0].Timestamp))
	assert.Equal(t, "u2", got[1].UserID)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportActivities(&buf, nil))

	got, err := ReadExport(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}
