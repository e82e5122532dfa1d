package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// GMMModel is a fitted diagonal-covariance Gaussian mixture.
type GMMModel struct {
	Weights   []float64   `json:"weights"`
	Means     [][]float64 `json:"means"`
	Variances [][]float64 `json:"variances"`
}

const (
	gmmMaxIters      = 200
	gmmTolerance     = 1e-6
	gmmVarianceFloor = 1e-6
)

var ErrGMMNotConverged = errors.New("mixture model did not converge")

// FitGMM fits a k-component diagonal Gaussian mixture with a seeded
// initialization so repeated runs produce identical models.
func FitGMM(points [][]float64, k int, seed int64) (*GMMModel, error) {
	if len(points) < k {
		return nil, fmt.Errorf("mixture model needs at least %d points, got %d", k, len(points))
	}
	dims := len(points[0])
	rng := rand.New(rand.NewSource(seed))

	model := &GMMModel{
		Weights:   make([]float64, k),
		Means:     make([][]float64, k),
		Variances: make([][]float64, k),
	}

	// Initialize means on distinct sampled points, variances on the global
	// per-column variance.
	globalVar := make([]float64, dims)
	col := make([]float64, len(points))
	for d := 0; d < dims; d++ {
		for i, p := range points {
			col[i] = p[d]
		}
		globalVar[d] = math.Max(stat.Variance(col, nil), gmmVarianceFloor)
	}
	perm := rng.Perm(len(points))
	for c := 0; c < k; c++ {
		model.Weights[c] = 1.0 / float64(k)
		model.Means[c] = append([]float64(nil), points[perm[c]]...)
		model.Variances[c] = append([]float64(nil), globalVar...)
	}

	resp := make([][]float64, len(points))
	for i := range resp {
		resp[i] = make([]float64, k)
	}

	prevLogLik := math.Inf(-1)
	for iter := 0; iter < gmmMaxIters; iter++ {
		// E-step
		logLik := 0.0
		for i, p := range points {
			total := 0.0
			for c := 0; c < k; c++ {
				resp[i][c] = model.Weights[c] * diagGaussian(p, model.Means[c], model.Variances[c])
				total += resp[i][c]
			}
			if total <= 0 {
				// Point is unreachable from every component; spread it evenly.
				for c := 0; c < k; c++ {
					resp[i][c] = 1.0 / float64(k)
				}
				total = math.SmallestNonzeroFloat64
			} else {
				for c := 0; c < k; c++ {
					resp[i][c] /= total
				}
			}
			logLik += math.Log(total)
		}

		// M-step
		for c := 0; c < k; c++ {
			respSum := 0.0
			for i := range points {
				respSum += resp[i][c]
			}
			model.Weights[c] = respSum / float64(len(points))

			for d := 0; d < dims; d++ {
				meanAcc := 0.0
				for i, p := range points {
					meanAcc += resp[i][c] * p[d]
				}
				mean := meanAcc / math.Max(respSum, gmmVarianceFloor)
				varAcc := 0.0
				for i, p := range points {
					diff := p[d] - mean
					varAcc += resp[i][c] * diff * diff
				}
				model.Means[c][d] = mean
				model.Variances[c][d] = math.Max(varAcc/math.Max(respSum, gmmVarianceFloor), gmmVarianceFloor)
			}
		}

		if math.Abs(logLik-prevLogLik) < gmmTolerance {
			return model, nil
		}
		prevLogLik = logLik
	}

	// Max iterations without meeting tolerance is still usable; hard
	// non-convergence shows up as NaNs.
	for c := 0; c < k; c++ {
		if math.IsNaN(model.Weights[c]) {
			return nil, ErrGMMNotConverged
		}
	}
	return model, nil
}

// Assign returns the component with maximum responsibility for a point.
func (m *GMMModel) Assign(point []float64) int {
	best, bestScore := 0, math.Inf(-1)
	for c := range m.Weights {
		score := m.Weights[c] * diagGaussian(point, m.Means[c], m.Variances[c])
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func diagGaussian(x, mean, variance []float64) float64 {
	logDensity := 0.0
	for d := range x {
		diff := x[d] - mean[d]
		logDensity += -0.5*math.Log(2*math.Pi*variance[d]) - diff*diff/(2*variance[d])
	}
	return math.Exp(logDensity)
}
