package classifier

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintsolar/pvdiag/pkg/features"
	"github.com/glintsolar/pvdiag/pkg/types"
)

// separableCorpus builds a linearly separable two-feature corpus: label 0
// around (-1,-1), label 1 around (1,1).
func separableCorpus(n int) ([]types.FeatureVector, map[types.DayKey]int) {
	rng := rand.New(rand.NewSource(99))
	var vectors []types.FeatureVector
	labels := make(map[types.DayKey]int)
	for i := 0; i < n; i++ {
		label := i % 2
		center := -1.0
		if label == 1 {
			center = 1.0
		}
		key := types.DayKey{PlantID: "p1", Date: fmt.Sprintf("2023-%03d", i)}
		vectors = append(vectors, types.FeatureVector{
			PlantID: key.PlantID,
			Date:    key.Date,
			Fault:   types.FaultShading,
			Values:  []float64{center + rng.Float64()*0.4 - 0.2, center + rng.Float64()*0.4 - 0.2},
		})
		labels[key] = label
	}
	return vectors, labels
}

func testSchema() features.Schema {
	return features.Schema{
		Fault:   types.FaultShading,
		Version: features.SchemaVersion,
		Columns: []string{"a", "b"},
	}
}

func TestTrainSeparableCorpus(t *testing.T) {
	vectors, labels := separableCorpus(60)

	artifact, metrics, err := Train(types.FaultShading, testSchema(), vectors, labels, 1)
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.InDelta(t, 1.0, metrics.F1, 0.01, "clean separation should validate near-perfectly")
	assert.Equal(t, 1, artifact.Predict([]float64{1.1, 0.9}))
	assert.Equal(t, 0, artifact.Predict([]float64{-0.9, -1.1}))
}

func TestTrainRejectsTinyCorpus(t *testing.T) {
	vectors, labels := separableCorpus(MinTrainingSamples - 1)
	_, _, err := Train(types.FaultShading, testSchema(), vectors, labels, 1)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestTrainIgnoresUnlabeledVectors(t *testing.T) {
	vectors, labels := separableCorpus(MinTrainingSamples)
	// Strip one label; the corpus drops below the minimum.
	delete(labels, types.DayKey{PlantID: "p1", Date: vectors[0].Date})
	_, _, err := Train(types.FaultShading, testSchema(), vectors, labels, 1)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestStratifiedSplitKeepsRareClass(t *testing.T) {
	labels := make([]int, 30)
	labels[3], labels[17] = 1, 1

	rng := rand.New(rand.NewSource(5))
	// 28 zeros reserve 5 for validation; the 2 ones reserve 1 despite the
	// fraction rounding to zero.
	trainIdx, valIdx := stratifiedSplit(labels, 0.2, rng)
	assert.Len(t, trainIdx, 24)
	assert.Len(t, valIdx, 6)

	count := func(idxs []int) int {
		n := 0
		for _, i := range idxs {
			if labels[i] == 1 {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count(trainIdx), "rare class appears in training")
	assert.Equal(t, 1, count(valIdx), "rare class appears in validation")
}

func TestArtifactRoundTrip(t *testing.T) {
	vectors, labels := separableCorpus(40)
	artifact, _, err := Train(types.FaultShading, testSchema(), vectors, labels, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "shading_classifier.json")
	require.NoError(t, SaveArtifact(path, artifact))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, artifact.Schema, loaded.Schema)

	// The reloaded bundle must score identically.
	for _, v := range vectors {
		assert.Equal(t, artifact.Predict(v.Values), loaded.Predict(v.Values))
	}
}

func TestLoadArtifactRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, SaveArtifact(path, &ModelArtifact{Fault: types.FaultShading}))
	_, err := LoadArtifact(path)
	assert.Error(t, err)
}
