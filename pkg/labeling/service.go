// Labeling translates raw cluster ids into binary fault labels. The rules
// are hand-coded domain knowledge, deliberately kept as pure functions so
// thresholds can change without touching clustering code: shading and
// soiling are common fault modes and therefore form the largest non-normal
// clusters, while rare anomalies form small ones.
package labeling

import (
	"sort"

	"github.com/glintsolar/pvdiag/pkg/types"
)

// ShadingLabel maps a density cluster id to a binary shading label.
// Noise (-1) and the dominant cluster 0 are both non-shading states; every
// further dense region is a shading signature.
func ShadingLabel(clusterID int) int {
	if clusterID >= 1 {
		return 1
	}
	return 0
}

// PollutionLabelMap maps mixture component ids to binary pollution labels
// given each component's member count. Component 0 is normal. Of the
// remaining components the larger one is pollution; the smaller is treated
// as an unrelated anomaly. With fewer than 2 non-normal points in total the
// majority rule degenerates and everything maps to 0. When two non-normal
// components tie in size, the lower id takes the pollution label.
func PollutionLabelMap(memberCounts map[int]int) map[int]int {
	labels := make(map[int]int, len(memberCounts))
	for id := range memberCounts {
		labels[id] = 0
	}

	var nonNormal []int
	totalNonNormal := 0
	for id, count := range memberCounts {
		if id == 0 {
			continue
		}
		nonNormal = append(nonNormal, id)
		totalNonNormal += count
	}
	if totalNonNormal < 2 {
		return labels
	}

	sort.Slice(nonNormal, func(i, j int) bool {
		if memberCounts[nonNormal[i]] != memberCounts[nonNormal[j]] {
			return memberCounts[nonNormal[i]] > memberCounts[nonNormal[j]]
		}
		return nonNormal[i] < nonNormal[j]
	})
	labels[nonNormal[0]] = 1
	return labels
}

// DeriveLabels converts a fault type's cluster assignments into per-day
// binary labels.
func DeriveLabels(fault types.FaultType, assignments []types.ClusterAssignment) map[types.DayKey]int {
	labels := make(map[types.DayKey]int, len(assignments))

	switch fault {
	case types.FaultShading:
		for _, a := range assignments {
			labels[types.DayKey{PlantID: a.PlantID, Date: a.Date}] = ShadingLabel(a.Cluster)
		}
	case types.FaultPollution:
		counts := make(map[int]int)
		for _, a := range assignments {
			counts[a.Cluster]++
		}
		clusterLabels := PollutionLabelMap(counts)
		for _, a := range assignments {
			labels[types.DayKey{PlantID: a.PlantID, Date: a.Date}] = clusterLabels[a.Cluster]
		}
	}
	return labels
}
