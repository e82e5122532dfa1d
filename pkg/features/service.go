// Features builds the two per-fault feature vector sets from a plant's
// daily aggregates and difference records.
package features

import (
	"math"
	"sort"

	"github.com/glintsolar/pvdiag/pkg/types"
)

// BuildVectors builds one plant's feature vectors for the given fault type.
// Days without a difference record are dropped, as are days producing any
// non-finite feature value. Excluded days (zero theoretical irradiance) get
// a neutral zero ratio so they remain scoreable at prediction time; the
// orchestrator keeps them out of the clustering and training corpora.
func BuildVectors(fault types.FaultType, aggregates []types.DailyAggregate, differences []types.DifferenceRecord) []types.FeatureVector {
	diffByDate := make(map[string]types.DifferenceRecord, len(differences))
	for _, d := range differences {
		diffByDate[d.Date] = d
	}

	sorted := make([]types.DailyAggregate, len(aggregates))
	copy(sorted, aggregates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var vectors []types.FeatureVector
	var rollingRatios []float64
	for _, a := range sorted {
		d, ok := diffByDate[a.Date]
		if !ok {
			continue
		}
		if d.Excluded {
			d.Ratio = 0
		}

		var values []float64
		switch fault {
		case types.FaultShading:
			values = shadingValues(a, d)
		case types.FaultPollution:
			rollingRatios = append(rollingRatios, d.Ratio)
			if len(rollingRatios) < rollingMinPeriods {
				continue
			}
			values = pollutionValues(a, d, rollingMean(rollingRatios))
		}

		if !allFinite(values) {
			continue
		}
		vectors = append(vectors, types.FeatureVector{
			PlantID: a.PlantID,
			Date:    a.Date,
			Fault:   fault,
			Values:  values,
		})
	}
	return vectors
}

func shadingValues(a types.DailyAggregate, d types.DifferenceRecord) []float64 {
	return []float64{
		a.EnergyYieldKWh,
		a.PVMaxW,
		a.DeltaStdW,
		a.MaxDeltaHour,
		a.MorningAfternoonRatio,
		a.MPP1CurrentStdA,
		a.MPP2CurrentStdA,
		a.MPP1VoltageStdV,
		a.MPP2VoltageStdV,
		currentAsymmetry(a.MPP1CurrentMeanA, a.MPP2CurrentMeanA),
		d.Ratio,
	}
}

func pollutionValues(a types.DailyAggregate, d types.DifferenceRecord, ratioTrend float64) []float64 {
	return []float64{
		a.EnergyYieldKWh,
		a.PVMeanW,
		a.PVStdW,
		a.PVMaxW,
		a.BatteryMeanW,
		a.SOCMeanPct,
		a.LoadMeanW,
		d.DeltaKWh,
		d.Ratio,
		ratioTrend,
	}
}

// currentAsymmetry is the relative imbalance between the two string
// currents; identical strings give 0, one dead string gives 2.
func currentAsymmetry(mpp1, mpp2 float64) float64 {
	mean := (mpp1 + mpp2) / 2
	if mean == 0 {
		return 0
	}
	return math.Abs(mpp1-mpp2) / mean
}

// rollingMean averages the last rollingWindowDays entries.
func rollingMean(ratios []float64) float64 {
	start := 0
	if len(ratios) > rollingWindowDays {
		start = len(ratios) - rollingWindowDays
	}
	window := ratios[start:]
	total := 0.0
	for _, v := range window {
		total += v
	}
	return total / float64(len(window))
}

// MinMaxNormalize scales each column of a plant's vectors to [0,1] in place.
// Constant columns become 0. Called per plant file, so per-plant scale
// differences do not dominate the corpus.
func MinMaxNormalize(vectors []types.FeatureVector) {
	if len(vectors) == 0 {
		return
	}
	dims := len(vectors[0].Values)
	for col := 0; col < dims; col++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range vectors {
			if v.Values[col] < lo {
				lo = v.Values[col]
			}
			if v.Values[col] > hi {
				hi = v.Values[col]
			}
		}
		span := hi - lo
		for _, v := range vectors {
			if span == 0 {
				v.Values[col] = 0
			} else {
				v.Values[col] = (v.Values[col] - lo) / span
			}
		}
	}
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
