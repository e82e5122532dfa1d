package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainDeterministicForSeed(t *testing.T) {
	vectors, labels := separableCorpus(40)

	a, _, err := Train(vectors[0].Fault, testSchema(), vectors, labels, 7)
	require.NoError(t, err)
	b, _, err := Train(vectors[0].Fault, testSchema(), vectors, labels, 7)
	require.NoError(t, err)

	assert.Equal(t, a.Net, b.Net, "identical seed reproduces the trained weights")
	assert.Equal(t, a.Scaler, b.Scaler)
}

func TestNetworkOutputInUnitInterval(t *testing.T) {
	vectors, labels := separableCorpus(40)
	artifact, _, err := Train(vectors[0].Fault, testSchema(), vectors, labels, 3)
	require.NoError(t, err)

	for _, v := range vectors {
		p, _ := artifact.Net.Forward(artifact.Scaler.Transform(v.Values))
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}
