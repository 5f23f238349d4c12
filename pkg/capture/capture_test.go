package capture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.db")
	r, err := Open(path)
	require.NoError(t, err)

	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.Record(Inbound, "127.0.0.1:5000", []byte("DSUC"), ts))
	require.NoError(t, r.Record(Outbound, "127.0.0.1:5000", []byte{0, 1, 2, 0xff}, ts.Add(time.Millisecond)))
	require.NoError(t, r.Close())

	r, err = Open(path)
	require.NoError(t, err)
	defer r.Close()

	records, err := r.All()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, uint64(1), records[0].Seq)
	assert.Equal(t, Inbound, records[0].Direction)
	assert.Equal(t, []byte("DSUC"), records[0].Data)
	assert.True(t, ts.Equal(records[0].Timestamp))

	assert.Equal(t, uint64(2), records[1].Seq)
	assert.Equal(t, Outbound, records[1].Direction)
	assert.Equal(t, []byte{0, 1, 2, 0xff}, records[1].Data)
	assert.Contains(t, records[1].String(), "direction: out")
}

func TestEmptyCapture(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	defer r.Close()

	records, err := r.All()
	require.NoError(t, err)
	assert.Empty(t, records)
}
