// Pipeline sequences the diagnosis stages and owns the caching contract.
// Every stage checks durable storage for its output artifact before
// recomputing, which makes runs idempotent and resumable: a failed run
// re-invoked only redoes stages whose outputs are absent.
package pipeline

import (
	"fmt"
	"log"

	"github.com/glintsolar/pvdiag/pkg/classifier"
	"github.com/glintsolar/pvdiag/pkg/config"
	"github.com/glintsolar/pvdiag/pkg/features"
	"github.com/glintsolar/pvdiag/pkg/labeling"
	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/plantmeta"
	"github.com/glintsolar/pvdiag/pkg/pvgis"
	"github.com/glintsolar/pvdiag/pkg/types"
)

type Orchestrator struct {
	cfg        *config.PipelineConfig
	irradiance *pvgis.Client
}

func New(cfg *config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		irradiance: pvgis.NewClient(cfg.PVGISBaseURL, cfg.MaxFetchRetries),
	}
}

// RunTraining executes the training stage chain: irradiance, aggregation,
// differencing, feature building, clustering, labeling, training.
func (o *Orchestrator) RunTraining() error {
	plants, err := o.prepare()
	if err != nil {
		return err
	}

	theoreticals, err := o.stageIrradiance(plants)
	if err != nil {
		return err
	}
	aggregates, err := o.stageAggregation(plants)
	if err != nil {
		return err
	}
	differences, err := o.stageDifferences(plants, aggregates, theoreticals)
	if err != nil {
		return err
	}
	excluded := excludedDays(differences)

	for _, fault := range types.FaultTypes {
		vectorsByPlant, err := o.stageFeatures(fault, aggregates, differences)
		if err != nil {
			return err
		}
		corpus := trainingCorpus(vectorsByPlant, excluded)
		if len(corpus) == 0 {
			return fmt.Errorf("no usable %s feature vectors across %d plants", fault, len(plants))
		}
		log.Printf("Training corpus for %s: %d plant-days (%d excluded)",
			fault, len(corpus), countExcluded(vectorsByPlant, excluded))

		assignments, err := o.stageClustering(fault, corpus)
		if err != nil {
			return err
		}
		labels := labeling.DeriveLabels(fault, assignments)

		if err := o.stageTraining(fault, corpus, labels); err != nil {
			return err
		}
	}

	log.Println("Training pipeline completed")
	return nil
}

// RunPrediction executes the prediction stage chain and writes the final
// classification output. A missing model artifact is fatal.
func (o *Orchestrator) RunPrediction() error {
	plants, err := o.prepare()
	if err != nil {
		return err
	}

	artifacts := make(map[types.FaultType]*classifier.ModelArtifact, len(types.FaultTypes))
	for _, fault := range types.FaultTypes {
		path := pathing.ModelArtifactPath(o.cfg.CacheDir, fault)
		artifact, err := classifier.LoadArtifact(path)
		if err != nil {
			return fmt.Errorf("no trained %s model at %s (run training first): %w", fault, path, err)
		}
		if artifact.Schema.Version != features.SchemaVersion {
			return fmt.Errorf("%s model was trained under schema version %d, current is %d; retrain",
				fault, artifact.Schema.Version, features.SchemaVersion)
		}
		artifacts[fault] = artifact
	}

	theoreticals, err := o.stageIrradiance(plants)
	if err != nil {
		return err
	}
	aggregates, err := o.stageAggregation(plants)
	if err != nil {
		return err
	}
	differences, err := o.stageDifferences(plants, aggregates, theoreticals)
	if err != nil {
		return err
	}

	vectorsByFault := make(map[types.FaultType]map[types.DayKey]types.FeatureVector)
	for _, fault := range types.FaultTypes {
		vectorsByPlant, err := o.stageFeatures(fault, aggregates, differences)
		if err != nil {
			return err
		}
		byKey := make(map[types.DayKey]types.FeatureVector)
		for _, vectors := range vectorsByPlant {
			for _, v := range vectors {
				byKey[types.DayKey{PlantID: v.PlantID, Date: v.Date}] = v
			}
		}
		vectorsByFault[fault] = byKey
	}

	reports := o.classify(plants, theoreticals, aggregates, artifacts, vectorsByFault)
	if err := writeOutput(o.cfg.OutputPath, reports); err != nil {
		return fmt.Errorf("write classification output: %w", err)
	}
	log.Printf("Prediction pipeline completed, output at %s", o.cfg.OutputPath)
	return nil
}

func (o *Orchestrator) prepare() ([]types.Plant, error) {
	if err := pathing.EnsureCacheLayout(o.cfg.CacheDir); err != nil {
		return nil, fmt.Errorf("prepare cache layout: %w", err)
	}
	plants, err := plantmeta.LoadPlants(o.cfg.PlantMetadataPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d plants", len(plants))
	return plants, nil
}

// excludedDays collects plant-days whose difference record is unusable, so
// clustering and training never see them.
func excludedDays(differences map[string][]types.DifferenceRecord) map[types.DayKey]bool {
	excluded := make(map[types.DayKey]bool)
	for plantID, records := range differences {
		for _, r := range records {
			if r.Excluded {
				excluded[types.DayKey{PlantID: plantID, Date: r.Date}] = true
			}
		}
	}
	return excluded
}

func trainingCorpus(vectorsByPlant map[string][]types.FeatureVector, excluded map[types.DayKey]bool) []types.FeatureVector {
	var corpus []types.FeatureVector
	for _, vectors := range vectorsByPlant {
		for _, v := range vectors {
			if excluded[types.DayKey{PlantID: v.PlantID, Date: v.Date}] {
				continue
			}
			corpus = append(corpus, v)
		}
	}
	return corpus
}

func countExcluded(vectorsByPlant map[string][]types.FeatureVector, excluded map[types.DayKey]bool) int {
	count := 0
	for _, vectors := range vectorsByPlant {
		for _, v := range vectors {
			if excluded[types.DayKey{PlantID: v.PlantID, Date: v.Date}] {
				count++
			}
		}
	}
	return count
}
