package differ

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintsolar/pvdiag/pkg/types"
)

func TestBuildDifferences(t *testing.T) {
	aggregates := []types.DailyAggregate{
		{PlantID: "p1", Date: "2023-06-01", EnergyYieldKWh: 40},
		{PlantID: "p1", Date: "2023-06-02", EnergyYieldKWh: 10},
		{PlantID: "p1", Date: "2023-06-03", EnergyYieldKWh: 5},
	}
	theoreticals := []types.TheoreticalDaily{
		{Date: "2023-06-01", ExpectedEnergyKWh: 50},
		{Date: "2023-06-02", ExpectedEnergyKWh: 0},
		{Date: "2023-06-04", ExpectedEnergyKWh: 30},
	}

	records := BuildDifferences(aggregates, theoreticals)
	require.Len(t, records, 2, "dates missing on either side are dropped")

	assert.Equal(t, "2023-06-01", records[0].Date)
	assert.InDelta(t, 0.8, records[0].Ratio, 1e-12)
	assert.InDelta(t, -10, records[0].DeltaKWh, 1e-12)
	assert.False(t, records[0].Excluded)

	assert.Equal(t, "2023-06-02", records[1].Date)
	assert.True(t, math.IsNaN(records[1].Ratio), "zero theoretical must not divide")
	assert.True(t, records[1].Excluded)
	assert.InDelta(t, 10, records[1].DeltaKWh, 1e-12)
}

func TestDifferencesCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p1_differences.csv")
	records := []types.DifferenceRecord{
		{PlantID: "p1", Date: "2023-06-01", ActualEnergyKWh: 40, TheoreticalEnergyKWh: 50, Ratio: 0.8, DeltaKWh: -10},
		{PlantID: "p1", Date: "2023-06-02", ActualEnergyKWh: 10, TheoreticalEnergyKWh: 0, Ratio: math.NaN(), DeltaKWh: 10, Excluded: true},
	}
	require.NoError(t, WriteDifferencesCSV(path, records))

	got, err := ReadDifferencesCSV(path, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0], got[0])
	assert.True(t, math.IsNaN(got[1].Ratio), "NaN sentinel survives the artifact")
	assert.True(t, got[1].Excluded)
}
