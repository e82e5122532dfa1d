package cluster

import "math"

// Noise is the DBSCAN id for points that belong to no dense region.
const Noise = -1

// DBSCAN clusters points by density. Cluster ids start at 0; sparse points
// get Noise. Deterministic for a fixed input order, which callers guarantee
// by sorting the corpus before clustering.
func DBSCAN(points [][]float64, eps float64, minPts int) []int {
	const unvisited = -2

	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = Noise
			continue
		}

		labels[i] = clusterID
		// Expand the cluster over the density-reachable frontier.
		for q := 0; q < len(neighbors); q++ {
			j := neighbors[q]
			if labels[j] == Noise {
				labels[j] = clusterID
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = clusterID
			jNeighbors := regionQuery(points, j, eps)
			if len(jNeighbors) >= minPts {
				neighbors = append(neighbors, jNeighbors...)
			}
		}
		clusterID++
	}
	return labels
}

func regionQuery(points [][]float64, idx int, eps float64) []int {
	var neighbors []int
	for j := range points {
		if euclidean(points[idx], points[j]) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
