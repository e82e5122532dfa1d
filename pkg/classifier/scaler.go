package classifier

import (
	"gonum.org/v1/gonum/stat"
)

// StandardScaler normalizes features to zero mean and unit variance. It is
// fit on the training split only and persisted with the classifier so
// prediction applies the identical transform.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation.
func FitScaler(samples [][]float64) *StandardScaler {
	dims := len(samples[0])
	scaler := &StandardScaler{
		Mean: make([]float64, dims),
		Std:  make([]float64, dims),
	}
	col := make([]float64, len(samples))
	for d := 0; d < dims; d++ {
		for i, s := range samples {
			col[i] = s[d]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std < 1e-9 {
			std = 1 // constant column, leave centered values at zero
		}
		scaler.Mean[d] = mean
		scaler.Std[d] = std
	}
	return scaler
}

// Transform returns the scaled copy of one sample.
func (s *StandardScaler) Transform(sample []float64) []float64 {
	out := make([]float64, len(sample))
	for d := range sample {
		out[d] = (sample[d] - s.Mean[d]) / s.Std[d]
	}
	return out
}
