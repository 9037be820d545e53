package tiering

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// ErrNoPoints is returned when there is nothing to cluster
var ErrNoPoints = errors.New("kmeans: no points")

// Options configures a k-means fit
type Options struct {
	K       int
	NInit   int
	MaxIter int
	// Seed fixes centroid initialisation. Nil draws a fresh seed per fit.
	Seed *uint64
}

// Result is the best fit over all initialisations. Labels are ordinal:
// cluster 0 has the smallest centroid.
type Result struct {
	Labels     []int
	Centroids  []float64
	Inertia    float64
	Iterations int
}

func (o Options) rng() *rand.Rand {
	if o.Seed != nil {
		return rand.New(rand.NewPCG(*o.Seed, *o.Seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Fit clusters one-dimensional values with k-means++ seeding and Lloyd
// iterations, keeping the lowest-inertia run out of NInit.
func Fit(values []float64, opts Options) (Result, error) {
	if len(values) == 0 {
		return Result{}, ErrNoPoints
	}
	if opts.K < 1 || opts.K > len(values) {
		return Result{}, fmt.Errorf("kmeans: k=%d out of range for %d points", opts.K, len(values))
	}
	if opts.NInit < 1 {
		opts.NInit = 1
	}
	if opts.MaxIter < 1 {
		opts.MaxIter = 300
	}

	r := opts.rng()
	var best Result
	for run := 0; run < opts.NInit; run++ {
		res := lloyd(values, seedCentroids(values, opts.K, r), opts.MaxIter)
		if run == 0 || res.Inertia < best.Inertia {
			best = res
		}
	}
	return relabel(best), nil
}

// Elbow returns the inertia for k = 1..maxK, stopping at the number of points
func Elbow(values []float64, maxK int, opts Options) ([]ElbowPoint, error) {
	if len(values) == 0 {
		return nil, ErrNoPoints
	}
	if maxK > len(values) {
		maxK = len(values)
	}
	points := make([]ElbowPoint, 0, maxK)
	for k := 1; k <= maxK; k++ {
		o := opts
		o.K = k
		res, err := Fit(values, o)
		if err != nil {
			return nil, err
		}
		points = append(points, ElbowPoint{K: k, Inertia: res.Inertia})
	}
	return points, nil
}

// seedCentroids picks the first centre uniformly and each following centre
// with probability proportional to its squared distance from the nearest one.
func seedCentroids(values []float64, k int, r *rand.Rand) []float64 {
	centroids := make([]float64, 0, k)
	centroids = append(centroids, values[r.IntN(len(values))])

	dist := make([]float64, len(values))
	for len(centroids) < k {
		var total float64
		for i, v := range values {
			dist[i] = sqDistToNearest(v, centroids)
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, values[r.IntN(len(values))])
			continue
		}
		target := r.Float64() * total
		idx := len(values) - 1
		var acc float64
		for i, d := range dist {
			acc += d
			if acc >= target && d > 0 {
				idx = i
				break
			}
		}
		centroids = append(centroids, values[idx])
	}
	return centroids
}

func lloyd(values, centroids []float64, maxIter int) Result {
	labels := make([]int, len(values))
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < maxIter {
		iter++
		changed := false
		for i, v := range values {
			c := nearest(v, centroids)
			if labels[i] != c {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]float64, len(centroids))
		counts := make([]int, len(centroids))
		for i, v := range values {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				centroids[c] = sums[c] / float64(counts[c])
				continue
			}
			// Empty cluster takes the point farthest from its centre. When
			// every point sits on its centre the cluster stays empty.
			far, farDist := 0, 0.0
			for i, v := range values {
				d := (v - centroids[labels[i]]) * (v - centroids[labels[i]])
				if d > farDist {
					far, farDist = i, d
				}
			}
			if farDist == 0 {
				continue
			}
			centroids[c] = values[far]
			labels[far] = c
		}
	}

	var inertia float64
	for i, v := range values {
		d := v - centroids[labels[i]]
		inertia += d * d
	}
	return Result{Labels: labels, Centroids: centroids, Inertia: inertia, Iterations: iter}
}

// relabel renumbers clusters by ascending centroid
func relabel(res Result) Result {
	order := make([]int, len(res.Centroids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return res.Centroids[order[a]] < res.Centroids[order[b]]
	})

	rank := make([]int, len(order))
	centroids := make([]float64, len(order))
	for newID, oldID := range order {
		rank[oldID] = newID
		centroids[newID] = res.Centroids[oldID]
	}
	labels := make([]int, len(res.Labels))
	for i, l := range res.Labels {
		labels[i] = rank[l]
	}
	return Result{Labels: labels, Centroids: centroids, Inertia: res.Inertia, Iterations: res.Iterations}
}

func nearest(v float64, centroids []float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, m := range centroids {
		d := (v - m) * (v - m)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Distinct counts the distinct values, the most clusters a fit can populate
func Distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func sqDistToNearest(v float64, centroids []float64) float64 {
	c := centroids[nearest(v, centroids)]
	return (v - c) * (v - c)
}
