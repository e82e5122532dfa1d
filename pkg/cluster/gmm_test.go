package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintsolar/pvdiag/pkg/types"
)

func gmmCorpus() [][]float64 {
	var points [][]float64
	centers := [][2]float64{{0, 0}, {5, 5}, {10, 0}}
	for _, c := range centers {
		for i := 0; i < 10; i++ {
			points = append(points, []float64{c[0] + 0.05*float64(i), c[1] - 0.05*float64(i)})
		}
	}
	return points
}

func TestFitGMMSeparatesComponents(t *testing.T) {
	points := gmmCorpus()
	model, err := FitGMM(points, 3, 42)
	require.NoError(t, err)

	// Points from one blob must share a component, and the three blobs
	// must not collapse onto each other.
	seen := make(map[int]bool)
	for b := 0; b < 3; b++ {
		first := model.Assign(points[b*10])
		for i := 1; i < 10; i++ {
			assert.Equal(t, first, model.Assign(points[b*10+i]))
		}
		seen[first] = true
	}
	assert.Len(t, seen, 3)
}

func TestFitGMMDeterministicForSeed(t *testing.T) {
	points := gmmCorpus()
	a, err := FitGMM(points, 3, 7)
	require.NoError(t, err)
	b, err := FitGMM(points, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFitGMMRejectsTinyCorpus(t *testing.T) {
	_, err := FitGMM([][]float64{{1, 1}, {2, 2}}, 3, 1)
	require.Error(t, err)
}

func TestRunPollutionAssignsWholeCorpus(t *testing.T) {
	var vectors []types.FeatureVector
	for i, p := range gmmCorpus() {
		vectors = append(vectors, types.FeatureVector{
			PlantID: "p1",
			Date:    fmt.Sprintf("2023-06-%02d", i+1),
			Fault:   types.FaultPollution,
			Values:  p,
		})
	}

	assignments, model, err := RunPollution(vectors, 42)
	require.NoError(t, err)
	require.NotNil(t, model)
	require.Len(t, assignments, len(vectors))
	for _, a := range assignments {
		assert.GreaterOrEqual(t, a.Cluster, 0)
		assert.Less(t, a.Cluster, PollutionComponents)
	}
}

func TestRunShadingEmptyCorpus(t *testing.T) {
	_, _, err := RunShading(nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}
