package telemetrydb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintsolar/pvdiag/pkg/types"
)

func openTestDB(t *testing.T) *TelemetryDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []types.OperationalRecord {
	return []types.OperationalRecord{
		{Timestamp: 1000, PVPowerW: 100, SOCPercent: 80},
		{Timestamp: 2000, PVPowerW: 200, SOCPercent: 81},
		{Timestamp: 3000, PVPowerW: 300, SOCPercent: 82},
	}
}

func TestInsertAndSelectOrdered(t *testing.T) {
	db := openTestDB(t)

	// Insert out of order; selection is ordered by timestamp.
	records := sampleRecords()
	records[0], records[2] = records[2], records[0]
	require.NoError(t, db.InsertOperationalRecords("p1", records))

	got, err := db.SelectPlantRecords("p1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, int64(3000), got[2].Timestamp)
}

func TestDuplicateTimestampKeepsFirst(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertOperationalRecords("p1", sampleRecords()))

	dup := []types.OperationalRecord{{Timestamp: 2000, PVPowerW: 999}}
	require.NoError(t, db.InsertOperationalRecords("p1", dup))

	got, err := db.SelectPlantRecords("p1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 200.0, got[1].PVPowerW)
}

func TestRecordsArePerPlant(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertOperationalRecords("p1", sampleRecords()))
	require.NoError(t, db.InsertOperationalRecords("p2", sampleRecords()[:1]))

	count, err := db.CountPlantRecords("p1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = db.CountPlantRecords("p2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := db.SelectPlantRecords("p3")
	require.NoError(t, err)
	assert.Empty(t, got)
}
