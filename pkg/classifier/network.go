package classifier

import (
	"math"
	"math/rand"
)

// Network is a one-hidden-layer binary classifier: tanh hidden units and a
// sigmoid output, trained with plain SGD on cross-entropy loss. Small and
// fully serializable; nothing here depends on the feature semantics.
type Network struct {
	InputDim  int         `json:"input_dim"`
	HiddenDim int         `json:"hidden_dim"`
	W1        [][]float64 `json:"w1"` // [hidden][input]
	B1        []float64   `json:"b1"`
	W2        []float64   `json:"w2"` // [hidden]
	B2        float64     `json:"b2"`
}

// NewNetwork initializes weights uniformly in a Glorot-style range from the
// given source, so a fixed seed reproduces the trained model exactly.
func NewNetwork(inputDim, hiddenDim int, rng *rand.Rand) *Network {
	net := &Network{
		InputDim:  inputDim,
		HiddenDim: hiddenDim,
		W1:        make([][]float64, hiddenDim),
		B1:        make([]float64, hiddenDim),
		W2:        make([]float64, hiddenDim),
	}
	limit1 := math.Sqrt(6.0 / float64(inputDim+hiddenDim))
	for h := 0; h < hiddenDim; h++ {
		net.W1[h] = make([]float64, inputDim)
		for i := 0; i < inputDim; i++ {
			net.W1[h][i] = (rng.Float64()*2 - 1) * limit1
		}
	}
	limit2 := math.Sqrt(6.0 / float64(hiddenDim+1))
	for h := 0; h < hiddenDim; h++ {
		net.W2[h] = (rng.Float64()*2 - 1) * limit2
	}
	return net
}

// Forward returns the fault probability and the hidden activations.
func (n *Network) Forward(x []float64) (float64, []float64) {
	hidden := make([]float64, n.HiddenDim)
	for h := 0; h < n.HiddenDim; h++ {
		z := n.B1[h]
		for i := 0; i < n.InputDim; i++ {
			z += n.W1[h][i] * x[i]
		}
		hidden[h] = math.Tanh(z)
	}
	z := n.B2
	for h := 0; h < n.HiddenDim; h++ {
		z += n.W2[h] * hidden[h]
	}
	return sigmoid(z), hidden
}

// Train runs SGD over the samples for the configured number of epochs,
// reshuffling each epoch from the same source.
func (n *Network) Train(samples [][]float64, labels []int, epochs int, learningRate float64, rng *rand.Rand) {
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, idx := range order {
			n.step(samples[idx], float64(labels[idx]), learningRate)
		}
	}
}

// step backpropagates one sample. With a sigmoid output and cross-entropy
// loss the output error is simply p - y.
func (n *Network) step(x []float64, y, lr float64) {
	p, hidden := n.Forward(x)
	outErr := p - y

	for h := 0; h < n.HiddenDim; h++ {
		hiddenErr := outErr * n.W2[h] * (1 - hidden[h]*hidden[h])
		n.W2[h] -= lr * outErr * hidden[h]
		for i := 0; i < n.InputDim; i++ {
			n.W1[h][i] -= lr * hiddenErr * x[i]
		}
		n.B1[h] -= lr * hiddenErr
	}
	n.B2 -= lr * outErr
}

// Predict thresholds the output probability at 0.5.
func (n *Network) Predict(x []float64) int {
	p, _ := n.Forward(x)
	if p >= 0.5 {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
