package types

// DateFormat is the calendar-day key used across all per-day artifacts.
const DateFormat = "2006-01-02"

// DailyAggregate summarises one plant's operational records for one calendar day.
type DailyAggregate struct {
	PlantID     string
	Date        string // DateFormat
	SampleCount int

	PVMeanW        float64
	PVMaxW         float64
	PVStdW         float64
	EnergyYieldKWh float64

	BatteryMeanW float64
	SOCMeanPct   float64
	LoadMeanW    float64

	MPP1CurrentStdA  float64
	MPP2CurrentStdA  float64
	MPP1VoltageStdV  float64
	MPP2VoltageStdV  float64
	MPP1CurrentMeanA float64
	MPP2CurrentMeanA float64

	// Intra-day shape stats for the shading signal.
	DeltaStdW             float64 // std of successive PV power deltas
	MaxDeltaHour          float64 // hour of day of the largest absolute delta
	MorningAfternoonRatio float64 // NaN when the afternoon yield is zero
}

// TheoreticalDaily is the expected production for one plant-day, derived
// from the theoretical irradiance source.
type TheoreticalDaily struct {
	PlantID           string
	Date              string
	IrradianceKWhM2   float64
	ExpectedEnergyKWh float64
}

// DifferenceRecord joins a DailyAggregate with its TheoreticalDaily.
type DifferenceRecord struct {
	PlantID              string
	Date                 string
	ActualEnergyKWh      float64
	TheoreticalEnergyKWh float64
	Ratio                float64 // actual/theoretical, NaN when theoretical is zero
	DeltaKWh             float64 // actual - theoretical
	Excluded             bool    // true when the ratio is not usable downstream
}
