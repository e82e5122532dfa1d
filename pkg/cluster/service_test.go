package cluster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintsolar/pvdiag/pkg/types"
)

func TestAssignmentsCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shading_assignments.csv")
	assignments := []types.ClusterAssignment{
		{PlantID: "p1", Date: "2023-06-01", Cluster: 0},
		{PlantID: "p1", Date: "2023-06-02", Cluster: -1},
		{PlantID: "p2", Date: "2023-06-01", Cluster: 2},
	}
	require.NoError(t, WriteAssignmentsCSV(path, assignments))

	got, err := ReadAssignmentsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, assignments, got)
}

func TestRunShadingSortsCorpus(t *testing.T) {
	vectors := []types.FeatureVector{
		{PlantID: "p2", Date: "2023-06-01", Values: []float64{0, 0}},
		{PlantID: "p1", Date: "2023-06-02", Values: []float64{0.1, 0}},
		{PlantID: "p1", Date: "2023-06-01", Values: []float64{0.2, 0}},
	}

	assignments, params, err := RunShading(vectors)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, 3, params.CorpusSize)

	assert.Equal(t, "p1", assignments[0].PlantID)
	assert.Equal(t, "2023-06-01", assignments[0].Date)
	assert.Equal(t, "2023-06-02", assignments[1].Date)
	assert.Equal(t, "p2", assignments[2].PlantID)
}
