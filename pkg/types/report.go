package types

// ClassificationMissing marks a plant-day where no prediction could be made
// because an upstream stage failed or produced no data for that day.
const ClassificationMissing = -1

// DailyClassification is the per-day diagnosis for one plant.
// Values are 0 (clean), 1 (fault detected) or ClassificationMissing.
type DailyClassification struct {
	Pollution int `json:"pollution"`
	Shading   int `json:"shading"`
}

// PlantReport is the final per-plant output record.
type PlantReport struct {
	PlantID              string                         `json:"plant_id"`
	Latitude             float64                        `json:"latitude"`
	Longitude            float64                        `json:"longitude"`
	KwPeak               float64                        `json:"kw_peak"`
	DailyClassifications map[string]DailyClassification `json:"daily_classifications"`
}
