package pvgis

// seriesResponse mirrors the slice of the PVGIS seriescalc JSON payload the
// pipeline consumes. Unknown fields are ignored.
type seriesResponse struct {
	Outputs struct {
		Hourly []hourlyValue `json:"hourly"`
	} `json:"outputs"`
}

type hourlyValue struct {
	Time          string  `json:"time"` // "20200101:0010"
	GlobalIrr     float64 `json:"G(i)"` // W/m2
	Temp2m        float64 `json:"T2m"`
	WindSpeed     float64 `json:"WS10m"`
	SunElev       float64 `json:"H_sun"`
	Reconstructed int     `json:"Int"`
}

const hourlyTimeLayout = "20060102:1504"

// PerformanceRatio converts plane-of-array irradiance into expected AC
// energy together with the plant's rated power. Flat system-loss factor.
const PerformanceRatio = 0.8
