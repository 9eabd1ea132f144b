// Package segment partitions projected respondents into market segments and
// scores the resulting partitions.
package segment

import (
	"math"
	"math/rand"

	"github.com/mpraski/clusters"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var ErrTooFewPoints = errors.New("fewer points than clusters")

// distance is the metric shared by every clusterer and by Silhouette.
var distance func(a, b []float64) float64 = clusters.EuclideanDistance

func sqDist(a, b []float64) float64 {
	d := distance(a, b)
	return d * d
}

// Points copies the rows of m into a slice of points.
func Points(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// KMeans runs Lloyd's algorithm from k-means++ seeds and keeps the best of
// NInit runs by inertia. Clusters that lose all their points are re-seeded
// with the point farthest from its centroid, so every label is used.
type KMeans struct {
	K       int
	MaxIter int
	NInit   int
	Tol     float64
	Seed    int64

	Centroids [][]float64
	Inertia   float64
}

func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{K: k, MaxIter: 300, NInit: 10, Tol: 1e-4, Seed: seed}
}

func (km *KMeans) Fit(X [][]float64) ([]int, error) {
	if km.K < 1 {
		return nil, errors.Errorf("kmeans: k must be positive, got %d", km.K)
	}
	if len(X) < km.K {
		return nil, errors.Wrapf(ErrTooFewPoints, "kmeans: %d points for k=%d", len(X), km.K)
	}
	tol := km.Tol * meanVariance(X)
	rng := rand.New(rand.NewSource(km.Seed))

	var best []int
	km.Inertia = math.Inf(1)
	for run := 0; run < max(km.NInit, 1); run++ {
		centroids := seedPlusPlus(X, km.K, rng)
		labels, centroids, inertia := lloyd(X, centroids, km.MaxIter, tol)
		if inertia < km.Inertia {
			best, km.Centroids, km.Inertia = labels, centroids, inertia
		}
	}
	return best, nil
}

// Predict assigns each point to its nearest fitted centroid.
func (km *KMeans) Predict(X [][]float64) []int {
	labels := make([]int, len(X))
	assign(X, km.Centroids, labels)
	return labels
}

func lloyd(X, centroids [][]float64, maxIter int, tol float64) ([]int, [][]float64, float64) {
	k := len(centroids)
	labels := make([]int, len(X))
	for it := 0; it < maxIter; it++ {
		assign(X, centroids, labels)
		fillEmpty(X, centroids, labels)
		next := means(X, labels, k)
		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if shift <= tol {
			break
		}
	}
	assign(X, centroids, labels)
	fillEmpty(X, centroids, labels)
	centroids = means(X, labels, k)

	inertia := 0.0
	for i, p := range X {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return labels, centroids, inertia
}

func assign(X, centroids [][]float64, labels []int) {
	for i, p := range X {
		best, bestD := 0, math.Inf(1)
		for c, mu := range centroids {
			if d := sqDist(p, mu); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
}

func fillEmpty(X, centroids [][]float64, labels []int) {
	counts := make([]int, len(centroids))
	for _, l := range labels {
		counts[l]++
	}
	for c := range centroids {
		if counts[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, p := range X {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			return
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		centroids[c] = append([]float64(nil), X[far]...)
	}
}

func means(X [][]float64, labels []int, k int) [][]float64 {
	dim := len(X[0])
	out := make([][]float64, k)
	counts := make([]int, k)
	for c := range out {
		out[c] = make([]float64, dim)
	}
	for i, p := range X {
		c := labels[i]
		counts[c]++
		for j, v := range p {
			out[c][j] += v
		}
	}
	for c := range out {
		if counts[c] == 0 {
			continue
		}
		for j := range out[c] {
			out[c][j] /= float64(counts[c])
		}
	}
	return out
}

// seedPlusPlus picks k initial centroids, each new one drawn with
// probability proportional to its squared distance from the nearest
// existing centroid.
func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rng.Intn(len(X))]...))

	d2 := make([]float64, len(X))
	for i, p := range X {
		d2[i] = sqDist(p, centroids[0])
	}
	for len(centroids) < k {
		total := 0.0
		for _, d := range d2 {
			total += d
		}
		pick := rng.Intn(len(X))
		if total > 0 {
			for i, d := range d2 {
				if d > 0 {
					pick = i
				}
			}
			target := rng.Float64() * total
			for i, d := range d2 {
				target -= d
				if target < 0 {
					pick = i
					break
				}
			}
		}
		c := append([]float64(nil), X[pick]...)
		centroids = append(centroids, c)
		for i, p := range X {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

func meanVariance(X [][]float64) float64 {
	if len(X) == 0 {
		return 0
	}
	dim := len(X[0])
	total := 0.0
	for j := 0; j < dim; j++ {
		mean := 0.0
		for _, p := range X {
			mean += p[j]
		}
		mean /= float64(len(X))
		v := 0.0
		for _, p := range X {
			v += (p[j] - mean) * (p[j] - mean)
		}
		total += v / float64(len(X))
	}
	return total / float64(dim)
}
