package segment

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Merge is one step of an agglomerative tree. A and B are cluster ids:
// ids below n are input points, id n+i is the cluster created by merge i.
type Merge struct {
	A, B   int
	Height float64
	Size   int
}

// Ward clusters bottom-up with Ward's minimum variance criterion and cuts
// the tree at K clusters.
type Ward struct {
	K       int
	Linkage []Merge
}

func NewWard(k int) *Ward { return &Ward{K: k} }

func (w *Ward) Fit(X [][]float64) ([]int, error) {
	if len(X) < w.K {
		return nil, errors.Wrapf(ErrTooFewPoints, "ward: %d points for k=%d", len(X), w.K)
	}
	w.Linkage = WardLinkage(X)
	return Cut(w.Linkage, len(X), w.K), nil
}

// WardLinkage builds the full merge tree with the nearest-neighbour chain
// algorithm and the Lance-Williams update for Ward distances. Merges come
// back sorted by height.
func WardLinkage(X [][]float64) []Merge {
	n := len(X)
	if n < 2 {
		return nil
	}
	d := newCondensed(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.set(i, j, distance(X[i], X[j]))
		}
	}

	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}
	raw := make([]Merge, 0, n-1)
	chain := make([]int, 0, n)

	for step := 0; step < n-1; step++ {
		if len(chain) == 0 {
			for i := range size {
				if size[i] > 0 {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		var best float64
		for {
			x = chain[len(chain)-1]
			y, best = -1, math.Inf(1)
			if len(chain) > 1 {
				y = chain[len(chain)-2]
				best = d.get(x, y)
			}
			for i := range size {
				if size[i] == 0 || i == x {
					continue
				}
				if dist := d.get(x, i); dist < best {
					y, best = i, dist
				}
			}
			if len(chain) > 1 && y == chain[len(chain)-2] {
				break
			}
			chain = append(chain, y)
		}
		chain = chain[:len(chain)-2]

		if x > y {
			x, y = y, x
		}
		nx, ny := size[x], size[y]
		raw = append(raw, Merge{A: x, B: y, Height: best, Size: nx + ny})
		size[x] = 0
		size[y] = nx + ny

		for i := range size {
			if size[i] == 0 || i == y {
				continue
			}
			d.set(i, y, wardUpdate(d.get(i, x), d.get(i, y), best, float64(nx), float64(ny), float64(size[i])))
		}
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Height < raw[j].Height })
	return relabelLinkage(raw, n)
}

func wardUpdate(dxi, dyi, dxy, nx, ny, ni float64) float64 {
	t := 1 / (nx + ny + ni)
	v := (ni+nx)*t*dxi*dxi + (ni+ny)*t*dyi*dyi - ni*t*dxy*dxy
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// relabelLinkage rewrites merges expressed with representative point ids
// into cluster ids, n+i for the cluster formed by merge i.
func relabelLinkage(raw []Merge, n int) []Merge {
	uf := newUnionFind(2*n - 1)
	next := n
	out := make([]Merge, len(raw))
	for i, m := range raw {
		a, b := uf.find(m.A), uf.find(m.B)
		if a > b {
			a, b = b, a
		}
		out[i] = Merge{A: a, B: b, Height: m.Height, Size: m.Size}
		uf.parent[a] = next
		uf.parent[b] = next
		next++
	}
	return out
}

// Cut applies the first n-k merges and labels the surviving clusters
// 0..k-1 in order of first appearance.
func Cut(linkage []Merge, n, k int) []int {
	uf := newUnionFind(2*n - 1)
	next := n
	for i := 0; i < n-k && i < len(linkage); i++ {
		uf.parent[uf.find(linkage[i].A)] = next
		uf.parent[uf.find(linkage[i].B)] = next
		next++
	}
	roots := make([]int, n)
	for i := range roots {
		roots[i] = uf.find(i)
	}
	return Relabel(roots)
}

// Relabel maps arbitrary cluster ids to 0..m-1 in order of first appearance.
func Relabel(labels []int) []int {
	ids := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		out[i] = id
	}
	return out
}

type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

// condensed stores the upper triangle of a symmetric distance matrix.
type condensed struct {
	n int
	v []float64
}

func newCondensed(n int) *condensed {
	return &condensed{n: n, v: make([]float64, n*(n-1)/2)}
}

func (c *condensed) index(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return c.n*i - i*(i+1)/2 + j - i - 1
}

func (c *condensed) get(i, j int) float64    { return c.v[c.index(i, j)] }
func (c *condensed) set(i, j int, v float64) { c.v[c.index(i, j)] = v }
