package labeling

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glintsolar/pvdiag/pkg/types"
)

func TestShadingLabel(t *testing.T) {
	tests := []struct {
		name    string
		cluster int
		want    int
	}{
		{"noise is not shading", -1, 0},
		{"dominant cluster is not shading", 0, 0},
		{"first dense fault cluster", 1, 1},
		{"any higher cluster", 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShadingLabel(tt.cluster))
		})
	}
}

func TestPollutionLabelMap(t *testing.T) {
	t.Run("largest non-normal cluster is pollution", func(t *testing.T) {
		labels := PollutionLabelMap(map[int]int{0: 50, 1: 30, 2: 5})
		assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 0}, labels)
	})

	t.Run("order of sizes decides, not ids", func(t *testing.T) {
		labels := PollutionLabelMap(map[int]int{0: 50, 1: 5, 2: 30})
		assert.Equal(t, map[int]int{0: 0, 1: 0, 2: 1}, labels)
	})

	t.Run("equal sizes break toward the lower id", func(t *testing.T) {
		labels := PollutionLabelMap(map[int]int{0: 50, 1: 10, 2: 10})
		assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 0}, labels)
	})

	t.Run("fewer than two non-normal points degenerates to all zero", func(t *testing.T) {
		labels := PollutionLabelMap(map[int]int{0: 50, 1: 1})
		assert.Equal(t, map[int]int{0: 0, 1: 0}, labels)
	})

	t.Run("only the normal cluster", func(t *testing.T) {
		labels := PollutionLabelMap(map[int]int{0: 50})
		assert.Equal(t, map[int]int{0: 0}, labels)
	})
}

func TestDeriveLabels(t *testing.T) {
	t.Run("shading", func(t *testing.T) {
		assignments := []types.ClusterAssignment{
			{PlantID: "p1", Date: "2023-05-01", Cluster: -1},
			{PlantID: "p1", Date: "2023-05-02", Cluster: 0},
			{PlantID: "p1", Date: "2023-05-03", Cluster: 2},
		}
		labels := DeriveLabels(types.FaultShading, assignments)
		assert.Equal(t, 0, labels[types.DayKey{PlantID: "p1", Date: "2023-05-01"}])
		assert.Equal(t, 0, labels[types.DayKey{PlantID: "p1", Date: "2023-05-02"}])
		assert.Equal(t, 1, labels[types.DayKey{PlantID: "p1", Date: "2023-05-03"}])
	})

	t.Run("pollution counts members across plants", func(t *testing.T) {
		var assignments []types.ClusterAssignment
		add := func(plant string, cluster, n int) {
			for i := 0; i < n; i++ {
				assignments = append(assignments, types.ClusterAssignment{
					PlantID: plant,
					Date:    fmt.Sprintf("2023-05-%02d", i+1),
					Cluster: cluster,
				})
			}
		}
		add("p1", 0, 4)
		add("p2", 1, 3)
		add("p3", 2, 2)

		labels := DeriveLabels(types.FaultPollution, assignments)
		for _, a := range assignments {
			want := 0
			if a.Cluster == 1 {
				want = 1
			}
			assert.Equal(t, want, labels[types.DayKey{PlantID: a.PlantID, Date: a.Date}])
		}
	})
}
