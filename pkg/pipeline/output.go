package pipeline

import (
	"encoding/json"
	"sort"

	"github.com/glintsolar/pvdiag/pkg/classifier"
	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

// classify builds the final per-plant reports. The date universe for a
// plant is every day seen by either the aggregation or irradiance stage;
// a day without a scoreable vector is reported as missing (-1) rather than
// dropped, so downstream consumers can tell "clean" from "no answer".
func (o *Orchestrator) classify(
	plants []types.Plant,
	theoreticals map[string][]types.TheoreticalDaily,
	aggregates map[string][]types.DailyAggregate,
	artifacts map[types.FaultType]*classifier.ModelArtifact,
	vectorsByFault map[types.FaultType]map[types.DayKey]types.FeatureVector,
) []types.PlantReport {
	reports := make([]types.PlantReport, 0, len(plants))

	for _, plant := range plants {
		dates := make(map[string]bool)
		for _, t := range theoreticals[plant.PlantID] {
			dates[t.Date] = true
		}
		for _, a := range aggregates[plant.PlantID] {
			dates[a.Date] = true
		}

		classifications := make(map[string]types.DailyClassification, len(dates))
		for date := range dates {
			key := types.DayKey{PlantID: plant.PlantID, Date: date}
			classification := types.DailyClassification{
				Pollution: types.ClassificationMissing,
				Shading:   types.ClassificationMissing,
			}
			if v, ok := vectorsByFault[types.FaultShading][key]; ok {
				classification.Shading = artifacts[types.FaultShading].Predict(v.Values)
			}
			if v, ok := vectorsByFault[types.FaultPollution][key]; ok {
				classification.Pollution = artifacts[types.FaultPollution].Predict(v.Values)
			}
			classifications[date] = classification
		}

		reports = append(reports, types.PlantReport{
			PlantID:              plant.PlantID,
			Latitude:             plant.Latitude,
			Longitude:            plant.Longitude,
			KwPeak:               plant.KwPeak,
			DailyClassifications: classifications,
		})
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].PlantID < reports[j].PlantID })
	return reports
}

// writeOutput publishes the final classification JSON atomically.
func writeOutput(path string, reports []types.PlantReport) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	return pathing.WriteFileAtomic(path, data, 0644)
}
