// Package forest trains the random forest pipeline that predicts a
// respondent's demographic class from their encoded answers.
package forest

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"marketseg/internal/features"
)

// Params are the tunable forest hyperparameters. MaxDepth 0 is unlimited.
type Params struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
}

func (p Params) String() string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("trees=%d max_depth=%s min_samples_split=%d min_samples_leaf=%d",
		p.Trees, depth, p.MinSamplesSplit, p.MinSamplesLeaf)
}

// Forest is a bagged ensemble of CART trees. Each tree sees a bootstrap
// sample and floor(sqrt(p)) candidate features per split; predictions
// average the leaf class distributions.
type Forest struct {
	Params   Params
	Seed     int64
	NClasses int
	Trees    []*Tree
}

func (f *Forest) Fit(X [][]float64, y []int, nClasses int) error {
	if len(X) == 0 {
		return features.ErrEmpty
	}
	if len(y) != len(X) {
		return errors.Errorf("forest: %d rows but %d labels", len(X), len(y))
	}
	if f.Params.Trees < 1 {
		return errors.Errorf("forest: need at least one tree, got %d", f.Params.Trees)
	}

	f.NClasses = nClasses
	f.Trees = make([]*Tree, f.Params.Trees)
	maxFeatures := int(math.Sqrt(float64(len(X[0]))))
	n := len(X)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range f.Trees {
		i := i
		g.Go(func() error {
			// Seeds depend only on the tree index, not on scheduling.
			rng := rand.New(rand.NewSource(f.Seed + int64(i)))
			sample := make([]int, n)
			for j := range sample {
				sample[j] = rng.Intn(n)
			}
			tree := &Tree{
				MaxDepth:        f.Params.MaxDepth,
				MinSamplesSplit: f.Params.MinSamplesSplit,
				MinSamplesLeaf:  f.Params.MinSamplesLeaf,
				MaxFeatures:     maxFeatures,
				NClasses:        nClasses,
			}
			tree.Fit(X, y, sample, rng)
			f.Trees[i] = tree
			return nil
		})
	}
	return g.Wait()
}

func (f *Forest) Proba(x []float64) []float64 {
	out := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		floats.Add(out, t.Proba(x))
	}
	floats.Scale(1/float64(len(f.Trees)), out)
	return out
}

// Predict returns the class index with the highest mean probability; ties
// go to the lower index.
func (f *Forest) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = floats.MaxIdx(f.Proba(x))
	}
	return out
}

// Model is the persisted pipeline: the scaler, the fitted forest and the
// metadata needed to read its predictions.
type Model struct {
	Scaler       *features.Scaler
	Forest       *Forest
	Classes      []string
	Features     []string
	CVAccuracy   float64
	TestAccuracy float64
}

// Fit standardizes X and trains a forest on it. classes fixes the label
// order; when nil it is the sorted set of y.
func Fit(X mat.Matrix, y []string, classes []string, params Params, seed int64) (*Model, error) {
	if classes == nil {
		classes = Classes(y)
	}
	codes, err := encodeLabels(y, classes)
	if err != nil {
		return nil, err
	}
	scaler := &features.Scaler{}
	Z, err := scaler.FitTransform(X)
	if err != nil {
		return nil, errors.Wrap(err, "scale features")
	}
	f := &Forest{Params: params, Seed: seed}
	if err := f.Fit(rows(Z), codes, len(classes)); err != nil {
		return nil, err
	}
	return &Model{Scaler: scaler, Forest: f, Classes: classes}, nil
}

func (m *Model) Predict(X mat.Matrix) ([]string, error) {
	Z, err := m.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	codes := m.Forest.Predict(rows(Z))
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = m.Classes[c]
	}
	return out, nil
}

// Classes returns the sorted distinct labels of y.
func Classes(y []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func encodeLabels(y, classes []string) ([]int, error) {
	pos := make(map[string]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	out := make([]int, len(y))
	for i, v := range y {
		c, ok := pos[v]
		if !ok {
			return nil, errors.Errorf("label %q is not a known class", v)
		}
		out[i] = c
	}
	return out, nil
}

func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// Accuracy is the share of positions where the labels agree.
func Accuracy(yTrue, yPred []string) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}
