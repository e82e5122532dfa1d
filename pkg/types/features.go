package types

// FaultType selects one of the two diagnosis tracks. Each track has its own
// feature schema, clustering algorithm and classifier artifact.
type FaultType string

const (
	FaultShading   FaultType = "shading"
	FaultPollution FaultType = "pollution"
)

// FaultTypes lists all tracks in a fixed order.
var FaultTypes = []FaultType{FaultShading, FaultPollution}

// FeatureVector is one plant-day's numeric features for one fault type.
// Values follow the column order of the persisted schema for that fault.
type FeatureVector struct {
	PlantID string
	Date    string
	Fault   FaultType
	Values  []float64
}

// DayKey identifies one plant-day across stages.
type DayKey struct {
	PlantID string
	Date    string
}

// ClusterAssignment maps one feature vector to its cluster id.
// Density-based clustering uses -1 for noise points.
type ClusterAssignment struct {
	PlantID string
	Date    string
	Cluster int
}
