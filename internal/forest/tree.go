package forest

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one entry of a flattened decision tree. Leaves have Feature -1
// and carry the class distribution of their training samples.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Probs     []float64
}

// Tree is a CART classifier grown with the gini criterion. MaxDepth 0
// means unlimited; MaxFeatures 0 means every feature is tried at each split.
type Tree struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	NClasses        int
	Nodes           []Node
}

// Fit grows the tree on the rows of X selected by idx. idx may repeat rows,
// which is how bootstrap samples are expressed.
func (t *Tree) Fit(X [][]float64, y []int, idx []int, rng *rand.Rand) {
	t.Nodes = t.Nodes[:0]
	work := append([]int(nil), idx...)
	t.grow(X, y, work, 0, rng)
}

func (t *Tree) grow(X [][]float64, y []int, idx []int, depth int, rng *rand.Rand) int {
	counts := make([]float64, t.NClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	node := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Left: -1, Right: -1, Probs: normalize(counts)})

	n := len(idx)
	if (t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		n < t.MinSamplesSplit || n < 2*t.MinSamplesLeaf || gini(counts, float64(n)) == 0 {
		return node
	}

	feature, threshold, ok := t.bestSplit(X, y, idx, counts, rng)
	if !ok {
		return node
	}

	left, right := partition(X, idx, feature, threshold)
	l := t.grow(X, y, left, depth+1, rng)
	r := t.grow(X, y, right, depth+1, rng)
	t.Nodes[node].Feature = feature
	t.Nodes[node].Threshold = threshold
	t.Nodes[node].Left = l
	t.Nodes[node].Right = r
	t.Nodes[node].Probs = nil
	return node
}

// bestSplit visits features in random order until MaxFeatures non-constant
// ones have been evaluated and returns the split with the lowest weighted
// child impurity.
func (t *Tree) bestSplit(X [][]float64, y []int, idx []int, total []float64, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	budget := t.MaxFeatures
	if budget <= 0 || budget > nFeatures {
		budget = nFeatures
	}

	n := float64(len(idx))
	parent := gini(total, n)
	bestFeature, bestThreshold, bestScore := -1, 0.0, math.Inf(1)

	order := make([]int, len(idx))
	left := make([]float64, t.NClasses)
	right := make([]float64, t.NClasses)
	visited := 0
	for _, f := range rng.Perm(nFeatures) {
		if visited >= budget {
			break
		}
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })
		if X[order[0]][f] == X[order[len(order)-1]][f] {
			continue
		}
		visited++

		for c := range left {
			left[c], right[c] = 0, total[c]
		}
		for i := 0; i < len(order)-1; i++ {
			cls := y[order[i]]
			left[cls]++
			right[cls]--
			lo, hi := X[order[i]][f], X[order[i+1]][f]
			if lo == hi {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			if int(nl) < t.MinSamplesLeaf || int(nr) < t.MinSamplesLeaf {
				continue
			}
			score := (nl*gini(left, nl) + nr*gini(right, nr)) / n
			if score < bestScore {
				bestFeature, bestScore = f, score
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}
	if bestFeature < 0 || bestScore > parent {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func partition(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// Proba returns the class distribution of the leaf x falls into.
func (t *Tree) Proba(x []float64) []float64 {
	node := 0
	for t.Nodes[node].Feature >= 0 {
		nd := t.Nodes[node]
		if x[nd.Feature] <= nd.Threshold {
			node = nd.Left
		} else {
			node = nd.Right
		}
	}
	return t.Nodes[node].Probs
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	s := 1.0
	for _, c := range counts {
		p := c / n
		s -= p * p
	}
	return s
}

func normalize(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
