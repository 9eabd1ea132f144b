package segment

import (
	"sort"

	"github.com/pkg/errors"
)

var ErrTooFewLabels = errors.New("silhouette needs between 2 and n-1 distinct labels")

// Silhouette returns the mean silhouette coefficient of labels over X. Points
// alone in their cluster score 0.
func Silhouette(X [][]float64, labels []int) (float64, error) {
	n := len(X)
	if len(labels) != n {
		return 0, errors.Errorf("silhouette: %d points but %d labels", n, len(labels))
	}
	ids := Relabel(labels)
	k := 0
	for _, l := range ids {
		k = max(k, l+1)
	}
	if k < 2 || k > n-1 {
		return 0, errors.Wrapf(ErrTooFewLabels, "got %d labels for %d points", k, n)
	}

	sizes := make([]int, k)
	for _, l := range ids {
		sizes[l]++
	}
	sums := make([]float64, k)
	total := 0.0
	for i := 0; i < n; i++ {
		if sizes[ids[i]] == 1 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if j != i {
				sums[ids[j]] += distance(X[i], X[j])
			}
		}
		a := sums[ids[i]] / float64(sizes[ids[i]]-1)
		b := -1.0
		for c := 0; c < k; c++ {
			if c == ids[i] {
				continue
			}
			if m := sums[c] / float64(sizes[c]); b < 0 || m < b {
				b = m
			}
		}
		if den := max(a, b); den > 0 {
			total += (b - a) / den
		}
	}
	return total / float64(n), nil
}

// Contingency counts how often label a[i] meets label b[i]. Rows and columns
// share the sorted union of both label sets.
func Contingency(a, b []int) (labels []int, table [][]int) {
	seen := make(map[int]struct{})
	for _, l := range a {
		seen[l] = struct{}{}
	}
	for _, l := range b {
		seen[l] = struct{}{}
	}
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	table = make([][]int, len(labels))
	for i := range table {
		table[i] = make([]int, len(labels))
	}
	for i := range a {
		table[pos[a[i]]][pos[b[i]]]++
	}
	return labels, table
}

// AdjustedRand is the chance-corrected Rand index between two partitions:
// 1 for identical partitions up to renaming, around 0 for random ones.
func AdjustedRand(a, b []int) float64 {
	n := len(a)
	if n < 2 {
		return 1
	}
	_, table := Contingency(a, b)
	rows := make([]int, len(table))
	cols := make([]int, len(table))
	index := 0.0
	for i, row := range table {
		for j, v := range row {
			index += comb2(v)
			rows[i] += v
			cols[j] += v
		}
	}
	sumRows, sumCols := 0.0, 0.0
	for i := range rows {
		sumRows += comb2(rows[i])
		sumCols += comb2(cols[i])
	}
	expected := sumRows * sumCols / comb2(n)
	maxIndex := (sumRows + sumCols) / 2
	if maxIndex == expected {
		return 1
	}
	return (index - expected) / (maxIndex - expected)
}

func comb2(n int) float64 { return float64(n) * float64(n-1) / 2 }
