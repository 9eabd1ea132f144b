package forest

import (
	"context"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"marketseg/internal/features"
	"marketseg/internal/logging"
)

// Grid holds the candidate values per hyperparameter.
type Grid struct {
	Trees           []int
	MaxDepth        []int
	MinSamplesSplit []int
	MinSamplesLeaf  []int
}

// Candidates expands the grid. MaxDepth varies slowest and Trees fastest.
func (g Grid) Candidates() []Params {
	var out []Params
	for _, depth := range g.MaxDepth {
		for _, leaf := range g.MinSamplesLeaf {
			for _, split := range g.MinSamplesSplit {
				for _, trees := range g.Trees {
					out = append(out, Params{
						Trees:           trees,
						MaxDepth:        depth,
						MinSamplesSplit: split,
						MinSamplesLeaf:  leaf,
					})
				}
			}
		}
	}
	return out
}

type CVResult struct {
	Params Params
	Scores []float64
	Mean   float64
}

type SearchResult struct {
	Best      Params
	BestScore float64
	Results   []CVResult
	Model     *Model
}

// Search is an exhaustive stratified k-fold grid search scored on accuracy.
// Candidate/fold fits run concurrently on up to Workers goroutines.
type Search struct {
	Grid    Grid
	Folds   int
	Workers int
	Seed    int64
	Logger  *logging.Logger
}

func (s *Search) Fit(ctx context.Context, X mat.Matrix, y []string) (*SearchResult, error) {
	candidates := s.Grid.Candidates()
	if len(candidates) == 0 {
		return nil, errors.New("grid search: empty grid")
	}
	folds, err := StratifiedFolds(y, s.Folds)
	if err != nil {
		return nil, err
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	classes := Classes(y)
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Info("grid search: %d candidates x %d folds on %d workers", len(candidates), len(folds), workers)

	scores := make([][]float64, len(candidates))
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c, params := range candidates {
		c, params := c, params
		for f, test := range folds {
			f, test := f, test
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				train := complement(len(y), test)
				m, err := Fit(selectRows(X, train), features.Select(y, train), classes, params, s.Seed)
				if err != nil {
					return errors.Wrapf(err, "fit %v fold %d", params, f)
				}
				pred, err := m.Predict(selectRows(X, test))
				if err != nil {
					return err
				}
				scores[c][f] = Accuracy(features.Select(y, test), pred)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &SearchResult{BestScore: -1}
	for c, params := range candidates {
		mean := stat.Mean(scores[c], nil)
		res.Results = append(res.Results, CVResult{Params: params, Scores: scores[c], Mean: mean})
		logger.Debug("grid search: %v mean accuracy %.4f", params, mean)
		if mean > res.BestScore {
			res.Best, res.BestScore = params, mean
		}
	}

	logger.Info("grid search: refitting %v on %d rows", res.Best, len(y))
	res.Model, err = Fit(X, y, classes, res.Best, s.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "refit best candidate")
	}
	res.Model.CVAccuracy = res.BestScore
	return res, nil
}

// StratifiedFolds splits row indices into k test folds that keep the class
// mix. Rows are dealt round-robin class by class, so fold sizes differ by at
// most one.
func StratifiedFolds(y []string, k int) ([][]int, error) {
	if k < 2 {
		return nil, errors.Errorf("folds must be at least 2, got %d", k)
	}
	if len(y) < k {
		return nil, errors.Errorf("%d rows cannot fill %d folds", len(y), k)
	}
	folds := make([][]int, k)
	next := 0
	for _, class := range Classes(y) {
		for i, v := range y {
			if v == class {
				folds[next%k] = append(folds[next%k], i)
				next++
			}
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds, nil
}

func complement(n int, idx []int) []int {
	skip := make([]bool, n)
	for _, i := range idx {
		skip[i] = true
	}
	out := make([]int, 0, n-len(idx))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

func selectRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}
