package pipeline

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/glintsolar/pvdiag/pkg/aggregator"
	"github.com/glintsolar/pvdiag/pkg/classifier"
	"github.com/glintsolar/pvdiag/pkg/cluster"
	"github.com/glintsolar/pvdiag/pkg/differ"
	"github.com/glintsolar/pvdiag/pkg/features"
	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/telemetrydb"
	"github.com/glintsolar/pvdiag/pkg/types"
)

// stageIrradiance resolves theoretical dailies for every plant. Fetches are
// independent per plant, so they run on a small worker pool; each plant's
// result lands in its own cache file before anything downstream reads it.
// A plant that exhausts its retries is skipped with a warning.
func (o *Orchestrator) stageIrradiance(plants []types.Plant) (map[string][]types.TheoreticalDaily, error) {
	workers := o.cfg.FetchWorkers
	if workers < 1 {
		workers = 1
	}

	results := make(map[string][]types.TheoreticalDaily, len(plants))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, plant := range plants {
		wg.Add(1)
		sem <- struct{}{}
		go func(p types.Plant) {
			defer wg.Done()
			defer func() { <-sem }()

			dailies, err := o.irradiance.TheoreticalDailies(o.cfg.CacheDir, p, o.cfg.PVGISStartYear, o.cfg.PVGISEndYear)
			if err != nil {
				log.Printf("Warning: skipping plant %s in irradiance stage: %v", p.PlantID, err)
				return
			}
			mu.Lock()
			results[p.PlantID] = dailies
			mu.Unlock()
		}(plant)
	}
	wg.Wait()

	if len(results) == 0 {
		return nil, fmt.Errorf("irradiance stage failed for all %d plants", len(plants))
	}
	return results, nil
}

// stageAggregation produces daily aggregates per plant, loading the stage
// artifact when present and otherwise ingesting the plant's operational CSV
// into the telemetry store and computing from there.
func (o *Orchestrator) stageAggregation(plants []types.Plant) (map[string][]types.DailyAggregate, error) {
	results := make(map[string][]types.DailyAggregate, len(plants))

	// The telemetry db is only opened if at least one plant needs recompute.
	var db *telemetrydb.TelemetryDB
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	for _, plant := range plants {
		artifact := pathing.DailyAggregatePath(o.cfg.CacheDir, plant.PlantID)
		if pathing.Exists(artifact) {
			aggregates, err := aggregator.ReadDailyCSV(artifact, plant.PlantID)
			if err != nil {
				log.Printf("Warning: unreadable daily aggregate artifact for %s: %v", plant.PlantID, err)
				continue
			}
			if o.cfg.Verbose {
				log.Printf("Plant %s: daily aggregates already exist, skipping", plant.PlantID)
			}
			results[plant.PlantID] = aggregates
			continue
		}

		if db == nil {
			var err error
			if db, err = telemetrydb.Open(pathing.TelemetryDBPath(o.cfg.CacheDir)); err != nil {
				return nil, err
			}
		}

		csvPath := filepath.Join(o.cfg.OperationalDataDir, plant.PlantID+".csv")
		if _, err := aggregator.IngestPlantCSV(db, plant.PlantID, csvPath); err != nil {
			log.Printf("Warning: skipping plant %s in aggregation stage: %v", plant.PlantID, err)
			continue
		}
		aggregates, err := aggregator.BuildDailyAggregates(db, plant.PlantID)
		if err != nil {
			log.Printf("Warning: skipping plant %s in aggregation stage: %v", plant.PlantID, err)
			continue
		}
		if err := aggregator.WriteDailyCSV(artifact, plant.PlantID, aggregates); err != nil {
			return nil, fmt.Errorf("publish daily aggregates for %s: %w", plant.PlantID, err)
		}
		results[plant.PlantID] = aggregates
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("aggregation stage failed for all %d plants", len(plants))
	}
	return results, nil
}

// stageDifferences joins aggregates against theoretical dailies per plant.
func (o *Orchestrator) stageDifferences(plants []types.Plant, aggregates map[string][]types.DailyAggregate, theoreticals map[string][]types.TheoreticalDaily) (map[string][]types.DifferenceRecord, error) {
	results := make(map[string][]types.DifferenceRecord, len(plants))

	for _, plant := range plants {
		artifact := pathing.DifferencesPath(o.cfg.CacheDir, plant.PlantID)
		if pathing.Exists(artifact) {
			records, err := differ.ReadDifferencesCSV(artifact, plant.PlantID)
			if err != nil {
				log.Printf("Warning: unreadable differences artifact for %s: %v", plant.PlantID, err)
				continue
			}
			results[plant.PlantID] = records
			continue
		}

		aggs, okA := aggregates[plant.PlantID]
		theos, okT := theoreticals[plant.PlantID]
		if !okA || !okT {
			// Upstream already warned; this plant has no joinable data.
			continue
		}
		records := differ.BuildDifferences(aggs, theos)
		if len(records) == 0 {
			log.Printf("Warning: no overlapping dates for plant %s", plant.PlantID)
			continue
		}
		if err := differ.WriteDifferencesCSV(artifact, records); err != nil {
			return nil, fmt.Errorf("publish differences for %s: %w", plant.PlantID, err)
		}
		results[plant.PlantID] = records
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("differencing stage failed for all %d plants", len(plants))
	}
	return results, nil
}

// stageFeatures builds (or loads) per-plant feature vectors for one fault
// type, materializing the schema artifact on first use and refusing to
// reuse vectors cached under a different schema.
func (o *Orchestrator) stageFeatures(fault types.FaultType, aggregates map[string][]types.DailyAggregate, differences map[string][]types.DifferenceRecord) (map[string][]types.FeatureVector, error) {
	schemaPath := pathing.FeatureSchemaPath(o.cfg.CacheDir, fault)
	schema := features.SchemaFor(fault)
	if pathing.Exists(schemaPath) {
		var err error
		if schema, err = features.ReadSchema(schemaPath, fault); err != nil {
			return nil, err
		}
	} else {
		if err := features.WriteSchema(schemaPath, schema); err != nil {
			return nil, fmt.Errorf("publish %s schema: %w", fault, err)
		}
	}

	results := make(map[string][]types.FeatureVector)
	for plantID, aggs := range aggregates {
		artifact := pathing.FeatureVectorsPath(o.cfg.CacheDir, fault, plantID)
		if pathing.Exists(artifact) {
			vectors, err := features.ReadVectorsCSV(artifact, plantID, fault, schema)
			if err != nil {
				log.Printf("Warning: unreadable %s vectors for %s: %v", fault, plantID, err)
				continue
			}
			if o.cfg.Verbose {
				log.Printf("Plant %s: %s features already exist, skipping", plantID, fault)
			}
			results[plantID] = vectors
			continue
		}

		diffs, ok := differences[plantID]
		if !ok {
			continue
		}
		vectors := features.BuildVectors(fault, aggs, diffs)
		if len(vectors) == 0 {
			log.Printf("Warning: no %s features generated for plant %s", fault, plantID)
			continue
		}
		features.MinMaxNormalize(vectors)
		if err := features.WriteVectorsCSV(artifact, schema, vectors); err != nil {
			return nil, fmt.Errorf("publish %s vectors for %s: %w", fault, plantID, err)
		}
		results[plantID] = vectors
	}
	return results, nil
}

// stageClustering fits (or loads) the unsupervised model for one fault type
// over the whole corpus. Corpus-level failure here aborts the run.
func (o *Orchestrator) stageClustering(fault types.FaultType, corpus []types.FeatureVector) ([]types.ClusterAssignment, error) {
	artifact := pathing.ClusterAssignmentsPath(o.cfg.CacheDir, fault)
	if pathing.Exists(artifact) {
		log.Printf("Cluster assignments for %s already exist, skipping clustering", fault)
		return cluster.ReadAssignmentsCSV(artifact)
	}

	var assignments []types.ClusterAssignment
	var model any
	var err error
	switch fault {
	case types.FaultShading:
		assignments, model, err = shadingAssignments(corpus)
	case types.FaultPollution:
		assignments, model, err = pollutionAssignments(corpus, o.cfg.ClusterSeed)
	}
	if err != nil {
		return nil, err
	}

	if err := cluster.WriteAssignmentsCSV(artifact, assignments); err != nil {
		return nil, fmt.Errorf("publish %s assignments: %w", fault, err)
	}
	if err := cluster.WriteModelJSON(pathing.ClusterModelPath(o.cfg.CacheDir, fault), model); err != nil {
		return nil, fmt.Errorf("publish %s cluster model: %w", fault, err)
	}
	return assignments, nil
}

func shadingAssignments(corpus []types.FeatureVector) ([]types.ClusterAssignment, any, error) {
	assignments, params, err := cluster.RunShading(corpus)
	return assignments, params, err
}

func pollutionAssignments(corpus []types.FeatureVector, seed int64) ([]types.ClusterAssignment, any, error) {
	assignments, model, err := cluster.RunPollution(corpus, seed)
	return assignments, model, err
}

// stageTraining fits (or skips) the supervised classifier for one fault type.
func (o *Orchestrator) stageTraining(fault types.FaultType, corpus []types.FeatureVector, labels map[types.DayKey]int) error {
	artifact := pathing.ModelArtifactPath(o.cfg.CacheDir, fault)
	if pathing.Exists(artifact) {
		log.Printf("Model artifact for %s already exists, skipping training", fault)
		return nil
	}

	bundle, _, err := classifier.Train(fault, features.SchemaFor(fault), corpus, labels, o.cfg.ClassifierSeed)
	if err != nil {
		return err
	}
	return classifier.SaveArtifact(artifact, bundle)
}
