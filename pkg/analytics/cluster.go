package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/skillpath/gateway/pkg/vector"
)

// ClusterMember is one item assigned to a cluster
type ClusterMember struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"` // to the cluster centroid
}

// Cluster is one k-means cluster. Members are sorted by ascending distance
// to the centroid.
type Cluster struct {
	Index    int             `json:"index"`
	Centroid []float32       `json:"centroid"`
	Members  []ClusterMember `json:"members"`
}

// ClusterItems runs k-means over the embedded items. Centroids initialize by
// uniform random sampling from the embedded items with replacement; an empty
// cluster keeps its previous centroid. Iteration stops when no assignment
// changes or maxIterations is reached — non-convergence is not an error, the
// last state is returned. Exactly k clusters come back, sorted by index.
func (e *Engine) ClusterItems(ctx context.Context, items []Item, k, maxIterations int) ([]Cluster, error) {
	if err := validateBatch(items); err != nil {
		return nil, err
	}
	if k < 1 || k > len(items) {
		return nil, fmt.Errorf("%w: cluster count %d outside [1, %d]", ErrValidation, k, len(items))
	}
	if maxIterations <= 0 {
		maxIterations = 50
	}

	embedded, _ := e.embedAll(ctx, items, "")
	if len(embedded) == 0 {
		return nil, fmt.Errorf("no items could be embedded")
	}

	centroids := e.sampleCentroids(embedded, k)
	assignments := make([]int, len(embedded))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false

		for i, item := range embedded {
			nearest := nearestCentroid(item.vector, centroids)
			if nearest != assignments[i] {
				changed = true
				assignments[i] = nearest
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Recompute each centroid as the mean of its members; an empty
		// cluster retains its previous centroid unchanged
		for c := range centroids {
			var members [][]float32
			for i, a := range assignments {
				if a == c {
					members = append(members, embedded[i].vector)
				}
			}
			if len(members) == 0 {
				continue
			}
			if mean, err := vector.Mean(members); err == nil {
				centroids[c] = mean
			}
		}
	}

	clusters := make([]Cluster, k)
	for c := range clusters {
		clusters[c] = Cluster{Index: c, Centroid: centroids[c]}
	}
	for i, a := range assignments {
		distance, err := vector.Euclidean(embedded[i].vector, centroids[a])
		if err != nil {
			continue
		}
		clusters[a].Members = append(clusters[a].Members, ClusterMember{
			ID:       embedded[i].id,
			Distance: distance,
		})
	}
	for c := range clusters {
		members := clusters[c].Members
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Distance < members[j].Distance
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Index < clusters[j].Index
	})

	return clusters, nil
}

// sampleCentroids draws k starting centroids from the embedded items,
// uniformly with replacement
func (e *Engine) sampleCentroids(embedded []embedded, k int) [][]float32 {
	e.randMu.Lock()
	defer e.randMu.Unlock()

	centroids := make([][]float32, k)
	for i := range centroids {
		source := embedded[e.rand.Intn(len(embedded))].vector
		centroid := make([]float32, len(source))
		copy(centroid, source)
		centroids[i] = centroid
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid by Euclidean
// distance, lowest index winning ties
func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := -1.0
	for c, centroid := range centroids {
		d, err := vector.Euclidean(v, centroid)
		if err != nil {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
