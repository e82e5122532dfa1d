// Classifier trains and applies one binary feed-forward model per fault
// type. The trained artifact bundles the classifier, its input scaler and
// the feature schema it was trained under; it is immutable once written and
// only ever replaced wholesale.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/glintsolar/pvdiag/pkg/features"
	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

const (
	hiddenUnits        = 16
	trainingEpochs     = 200
	learningRate       = 0.05
	validationFraction = 0.2

	// MinTrainingSamples is the smallest corpus worth fitting; anything
	// below this is a corpus-level failure.
	MinTrainingSamples = 20
)

var ErrTooFewSamples = errors.New("too few labeled samples to train")

// ModelArtifact is the persisted classifier+scaler bundle for one fault type.
type ModelArtifact struct {
	Fault  types.FaultType `json:"fault"`
	Schema features.Schema `json:"schema"`
	Scaler *StandardScaler `json:"scaler"`
	Net    *Network        `json:"network"`
}

// Train fits a classifier on (vector, derived label) pairs. The split is
// stratified by label so a rare class is represented in both halves, and
// the scaler is fit on the training half only.
func Train(fault types.FaultType, schema features.Schema, vectors []types.FeatureVector, labels map[types.DayKey]int, seed int64) (*ModelArtifact, Metrics, error) {
	var samples [][]float64
	var sampleLabels []int
	for _, v := range vectors {
		label, ok := labels[types.DayKey{PlantID: v.PlantID, Date: v.Date}]
		if !ok {
			continue
		}
		samples = append(samples, v.Values)
		sampleLabels = append(sampleLabels, label)
	}
	if len(samples) < MinTrainingSamples {
		return nil, Metrics{}, fmt.Errorf("%w for %s: %d", ErrTooFewSamples, fault, len(samples))
	}

	rng := rand.New(rand.NewSource(seed))
	trainIdx, valIdx := stratifiedSplit(sampleLabels, validationFraction, rng)

	trainSamples := make([][]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainSamples[i] = samples[idx]
	}
	scaler := FitScaler(trainSamples)

	scaledTrain := make([][]float64, len(trainIdx))
	trainLabels := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		scaledTrain[i] = scaler.Transform(samples[idx])
		trainLabels[i] = sampleLabels[idx]
	}

	net := NewNetwork(len(schema.Columns), hiddenUnits, rng)
	net.Train(scaledTrain, trainLabels, trainingEpochs, learningRate, rng)

	valActual := make([]int, len(valIdx))
	valPredicted := make([]int, len(valIdx))
	for i, idx := range valIdx {
		valActual[i] = sampleLabels[idx]
		valPredicted[i] = net.Predict(scaler.Transform(samples[idx]))
	}
	metrics := Evaluate(valActual, valPredicted)
	log.Printf("Trained %s classifier on %d samples (%d validation): %s",
		fault, len(trainIdx), len(valIdx), metrics)

	artifact := &ModelArtifact{Fault: fault, Schema: schema, Scaler: scaler, Net: net}
	return artifact, metrics, nil
}

// stratifiedSplit shuffles each class separately and reserves the given
// fraction of each for validation.
func stratifiedSplit(labels []int, fraction float64, rng *rand.Rand) (trainIdx, valIdx []int) {
	byClass := map[int][]int{}
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	for _, class := range []int{0, 1} {
		idxs := byClass[class]
		rng.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })
		cut := int(float64(len(idxs)) * fraction)
		if cut == 0 && len(idxs) > 1 {
			cut = 1
		}
		valIdx = append(valIdx, idxs[:cut]...)
		trainIdx = append(trainIdx, idxs[cut:]...)
	}
	return trainIdx, valIdx
}

// Predict scores one feature vector with a loaded artifact.
func (a *ModelArtifact) Predict(values []float64) int {
	return a.Net.Predict(a.Scaler.Transform(values))
}

// SaveArtifact publishes the bundle atomically.
func SaveArtifact(path string, artifact *ModelArtifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	return pathing.WriteFileAtomic(path, data, 0644)
}

// LoadArtifact loads a persisted bundle read-only.
func LoadArtifact(path string) (*ModelArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if artifact.Scaler == nil || artifact.Net == nil {
		return nil, fmt.Errorf("model artifact %s is incomplete", path)
	}
	return &artifact, nil
}
