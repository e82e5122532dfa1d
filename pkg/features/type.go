package features

import "github.com/glintsolar/pvdiag/pkg/types"

// SchemaVersion is bumped whenever a column list changes. Prediction refuses
// to run against vectors built under a different version, so a schema edit
// can never silently reuse stale caches.
const SchemaVersion = 1

// Schema fixes the column order of a fault type's feature vectors. The
// scaler fit at training time is only valid under the same order, so the
// schema is persisted next to the vectors rather than implied by code.
type Schema struct {
	Fault   types.FaultType `json:"fault"`
	Version int             `json:"version"`
	Columns []string        `json:"columns"`
}

// ShadingSchema emphasizes intra-day shape and the asymmetry between the
// two MPP tracker strings, which partial shading skews.
func ShadingSchema() Schema {
	return Schema{
		Fault:   types.FaultShading,
		Version: SchemaVersion,
		Columns: []string{
			"energy_yield_kwh",
			"peak_pv_power_w",
			"delta_std",
			"max_delta_hour",
			"morning_afternoon_ratio",
			"mpp1_a_std",
			"mpp2_a_std",
			"mpp1_v_std",
			"mpp2_v_std",
			"mpp_current_asymmetry",
			"actual_theoretical_ratio",
		},
	}
}

// PollutionSchema emphasizes slow degradation: daily electrical means plus
// the actual-vs-theoretical ratio and its 30-day rolling mean. No intra-day
// variability terms; soiling degrades output uniformly across the day.
func PollutionSchema() Schema {
	return Schema{
		Fault:   types.FaultPollution,
		Version: SchemaVersion,
		Columns: []string{
			"energy_yield_kwh",
			"pv_mean_w",
			"pv_std_w",
			"pv_max_w",
			"battery_mean_w",
			"soc_mean_pct",
			"load_mean_w",
			"diff_delta_kwh",
			"diff_ratio",
			"diff_ratio_30d_avg",
		},
	}
}

// SchemaFor returns the current in-code schema for a fault type.
func SchemaFor(fault types.FaultType) Schema {
	if fault == types.FaultShading {
		return ShadingSchema()
	}
	return PollutionSchema()
}

// Rolling window constants for the pollution trend column.
const (
	rollingWindowDays = 30
	rollingMinPeriods = 15
)
