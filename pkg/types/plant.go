package types

// Plant is immutable reference data for one installation, loaded once per run.
type Plant struct {
	PlantID            string  `json:"plant_id"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	KwPeak             float64 `json:"kw_peak"`
	HasBattery         bool    `json:"has_battery"`
	BatteryCapacityKWh float64 `json:"battery_capacity"`
	InstallationDate   string  `json:"installation_date"`
	HasPV              bool    `json:"has_pv"`
}

// OperationalRecord is one raw telemetry sample from a plant's inverter.
// MPP1/MPP2 are the two independently tracked string inputs.
type OperationalRecord struct {
	Timestamp    int64   `db:"timestamp"` // unix seconds, UTC
	PVPowerW     float64 `db:"pv_w"`
	BatteryW     float64 `db:"battery_w"`
	SOCPercent   float64 `db:"soc_pct"`
	LoadW        float64 `db:"load_w"`
	MPP1CurrentA float64 `db:"mpp1_a"`
	MPP2CurrentA float64 `db:"mpp2_a"`
	MPP1VoltageV float64 `db:"mpp1_v"`
	MPP2VoltageV float64 `db:"mpp2_v"`
}
