// Cluster fits the unsupervised models over the whole training corpus.
// Fitting once across all plants is what makes cluster ids comparable
// between plants: a shading cluster found on one plant's days means the
// same thing on another's.
package cluster

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

var ErrEmptyCorpus = errors.New("clustering corpus is empty")

// DBSCAN parameters for the min-max normalized shading feature space.
const (
	ShadingEps       = 0.5
	ShadingMinPoints = 5
)

// PollutionComponents is the fixed mixture size for the pollution track.
const PollutionComponents = 3

// ShadingParams records the density clustering setup alongside assignments.
type ShadingParams struct {
	Eps        float64 `json:"eps"`
	MinPoints  int     `json:"min_points"`
	CorpusSize int     `json:"corpus_size"`
}

// RunShading density-clusters the full shading corpus. The corpus is sorted
// by (plant, date) first so assignments are reproducible run to run.
func RunShading(vectors []types.FeatureVector) ([]types.ClusterAssignment, ShadingParams, error) {
	if len(vectors) == 0 {
		return nil, ShadingParams{}, fmt.Errorf("shading: %w", ErrEmptyCorpus)
	}
	sorted := sortedCorpus(vectors)

	points := make([][]float64, len(sorted))
	for i, v := range sorted {
		points[i] = v.Values
	}
	labels := DBSCAN(points, ShadingEps, ShadingMinPoints)

	assignments := make([]types.ClusterAssignment, len(sorted))
	for i, v := range sorted {
		assignments[i] = types.ClusterAssignment{PlantID: v.PlantID, Date: v.Date, Cluster: labels[i]}
	}
	params := ShadingParams{Eps: ShadingEps, MinPoints: ShadingMinPoints, CorpusSize: len(sorted)}
	return assignments, params, nil
}

// RunPollution fits the pollution mixture over the full corpus and hardens
// the soft assignments by maximum responsibility.
func RunPollution(vectors []types.FeatureVector, seed int64) ([]types.ClusterAssignment, *GMMModel, error) {
	if len(vectors) == 0 {
		return nil, nil, fmt.Errorf("pollution: %w", ErrEmptyCorpus)
	}
	sorted := sortedCorpus(vectors)

	points := make([][]float64, len(sorted))
	for i, v := range sorted {
		points[i] = v.Values
	}
	model, err := FitGMM(points, PollutionComponents, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("pollution clustering: %w", err)
	}

	assignments := make([]types.ClusterAssignment, len(sorted))
	for i, v := range sorted {
		assignments[i] = types.ClusterAssignment{PlantID: v.PlantID, Date: v.Date, Cluster: model.Assign(points[i])}
	}
	return assignments, model, nil
}

func sortedCorpus(vectors []types.FeatureVector) []types.FeatureVector {
	sorted := make([]types.FeatureVector, len(vectors))
	copy(sorted, vectors)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PlantID != sorted[j].PlantID {
			return sorted[i].PlantID < sorted[j].PlantID
		}
		return sorted[i].Date < sorted[j].Date
	})
	return sorted
}

// WriteAssignmentsCSV publishes cluster assignments as a stage artifact.
func WriteAssignmentsCSV(path string, assignments []types.ClusterAssignment) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"plant_id", "date", "cluster"}); err != nil {
		return err
	}
	for _, a := range assignments {
		if err := w.Write([]string{a.PlantID, a.Date, strconv.Itoa(a.Cluster)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return pathing.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// ReadAssignmentsCSV loads a previously published assignment artifact.
func ReadAssignmentsCSV(path string) ([]types.ClusterAssignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 || len(rows[0]) != 3 {
		return nil, fmt.Errorf("unexpected assignment artifact %s", path)
	}

	var assignments []types.ClusterAssignment
	for _, row := range rows[1:] {
		cluster, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("bad cluster id in %s: %w", path, err)
		}
		assignments = append(assignments, types.ClusterAssignment{
			PlantID: row[0], Date: row[1], Cluster: cluster,
		})
	}
	return assignments, nil
}

// WriteModelJSON publishes clustering parameters or a fitted mixture model.
func WriteModelJSON(path string, model any) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	return pathing.WriteFileAtomic(path, data, 0644)
}
