// Package app wires the segmentation and classification stages into one
// batch run.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"marketseg/internal/config"
	"marketseg/internal/features"
	"marketseg/internal/forest"
	"marketseg/internal/logging"
	"marketseg/internal/pipeline"
	"marketseg/internal/profile"
	"marketseg/internal/render"
	"marketseg/internal/segment"
	"marketseg/internal/survey"
)

const (
	methodKMeans = "K-Means"
	methodGMM    = "GMM"
	methodWard   = "Hierarchical"
)

// State is handed from stage to stage. Each stage fills in its own fields.
type State struct {
	Dataset *survey.Dataset
	Matrix  *features.Matrix
	Target  []string
	Train   []int
	Test    []int

	Projected *mat.Dense
	PCA       *features.PCA

	Labels      map[string][]int
	Linkage     []segment.Merge
	Silhouettes []render.Score
	Agreement   []render.Score

	Profiles []profile.Segment

	Search *forest.SearchResult
	Report forest.Report
}

// Runner executes the full analysis for one configuration and prints the
// console report to Out.
type Runner struct {
	Config config.Config
	Logger *logging.Logger
	Out    io.Writer
}

func (r *Runner) Run(ctx context.Context) (*State, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	if r.Logger == nil {
		r.Logger = logging.Discard()
	}
	if r.Out == nil {
		r.Out = io.Discard
	}
	if err := os.MkdirAll(r.Config.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}
	return pipeline.Run(r.Logger, &State{},
		pipeline.NewStage("load", func(s *State) (*State, error) { return r.load(ctx, s) }),
		pipeline.NewStage("encode", r.encode),
		pipeline.NewStage("project", r.project),
		pipeline.NewStage("segment", r.segment),
		pipeline.NewStage("profile", r.profile),
		pipeline.NewStage("classify", func(s *State) (*State, error) { return r.classify(ctx, s) }),
	)
}

func (r *Runner) output(name string) string {
	return filepath.Join(r.Config.OutputDir, name)
}

func (r *Runner) load(ctx context.Context, s *State) (*State, error) {
	df, err := survey.LoadFile(ctx, r.Config.DataPath)
	if err != nil {
		return s, err
	}
	s.Dataset, err = survey.Clean(df)
	if err != nil {
		return s, err
	}
	r.Logger.Info("kept %d respondents, dropped %d incomplete rows", s.Dataset.Len(), s.Dataset.Dropped)
	return s, nil
}

func (r *Runner) encode(s *State) (*State, error) {
	m, target, err := features.Encode(s.Dataset)
	if err != nil {
		return s, err
	}
	s.Matrix, s.Target = m, target
	s.Train, s.Test = features.Split(s.Dataset.Len(), r.Config.TestSize, r.Config.SplitSeed)
	rows, cols := m.Dims()
	r.Logger.Info("encoded %d x %d matrix; %d train / %d test rows", rows, cols, len(s.Train), len(s.Test))
	return s, nil
}

func (r *Runner) project(s *State) (*State, error) {
	scaled, err := (&features.Scaler{}).FitTransform(s.Matrix.X)
	if err != nil {
		return s, err
	}
	s.PCA = &features.PCA{Components: 2}
	s.Projected, err = s.PCA.FitTransform(scaled)
	if err != nil {
		return s, err
	}
	r.Logger.Info("explained variance ratio %.3f", s.PCA.ExplainedVarianceRatio)
	return s, nil
}

func (r *Runner) segment(s *State) (*State, error) {
	k := r.Config.Segments
	points := segment.Points(s.Projected)

	ward := segment.NewWard(k)
	methods := []struct {
		name string
		fit  func([][]float64) ([]int, error)
	}{
		{methodKMeans, segment.NewKMeans(k, r.Config.ClusterSeed).Fit},
		{methodGMM, segment.NewGaussianMixture(k, r.Config.ClusterSeed).Fit},
		{methodWard, ward.Fit},
	}

	s.Labels = make(map[string][]int, len(methods))
	for _, m := range methods {
		labels, err := m.fit(points)
		if err != nil {
			return s, errors.Wrap(err, m.name)
		}
		s.Labels[m.name] = labels
		score, err := segment.Silhouette(points, labels)
		if err != nil {
			return s, errors.Wrapf(err, "%s silhouette", m.name)
		}
		s.Silhouettes = append(s.Silhouettes, render.Score{Name: m.name, Value: score})
	}
	s.Linkage = ward.Linkage

	for i, a := range methods {
		for _, b := range methods[i+1:] {
			s.Agreement = append(s.Agreement, render.Score{
				Name:  a.name + " vs " + b.name,
				Value: segment.AdjustedRand(s.Labels[a.name], s.Labels[b.name]),
			})
		}
	}

	render.Silhouettes(r.Out, s.Silhouettes)
	labels, table := segment.Contingency(s.Labels[methodKMeans], s.Labels[methodWard])
	render.Contingency(r.Out, methodKMeans, methodWard, labels, table)
	render.Agreement(r.Out, s.Agreement)
	return s, nil
}

func (r *Runner) profile(s *State) (*State, error) {
	k := r.Config.Segments
	labels := s.Labels[methodKMeans]
	var err error
	s.Profiles, err = profile.Build(s.Dataset, labels, k, r.Config.PositiveTarget)
	if err != nil {
		return s, err
	}
	render.Profiles(r.Out, s.Profiles, r.Config.PositiveTarget)

	n := s.Dataset.Len()
	steps := []struct {
		file   string
		render func(path string) error
	}{
		{"dendrogram.png", func(p string) error {
			return render.Dendrogram(s.Linkage, n, r.Config.DendrogramLast, p)
		}},
		{"dendrogram.dot", func(p string) error {
			return render.WriteDendrogramDOT(s.Linkage, n, r.Config.DendrogramLast, p)
		}},
		{"mosaic.png", func(p string) error {
			return render.Mosaic(profile.LikeCrosstab(s.Dataset, labels, k), p)
		}},
		{"segments.png", func(p string) error {
			return render.SegmentProfiles(s.Profiles, r.Config.PositiveTarget, p)
		}},
		{"segments.html", func(p string) error {
			return render.WriteSegmentPage(p, segment.Points(s.Projected), labels, s.Silhouettes)
		}},
	}
	for _, step := range steps {
		path := r.output(step.file)
		if err := step.render(path); err != nil {
			return s, err
		}
		r.Logger.Debug("wrote %s", path)
	}
	return s, nil
}

func (r *Runner) classify(ctx context.Context, s *State) (*State, error) {
	cfg := r.Config
	search := &forest.Search{
		Grid: forest.Grid{
			Trees:           cfg.Grid.Trees,
			MaxDepth:        cfg.Grid.MaxDepth,
			MinSamplesSplit: cfg.Grid.MinSamplesSplit,
			MinSamplesLeaf:  cfg.Grid.MinSamplesLeaf,
		},
		Folds:   cfg.Folds,
		Workers: cfg.Workers,
		Seed:    cfg.ForestSeed,
		Logger:  r.Logger,
	}
	res, err := search.Fit(ctx, s.Matrix.Rows(s.Train), features.Select(s.Target, s.Train))
	if err != nil {
		return s, errors.Wrap(err, "grid search")
	}
	s.Search = res

	pred, err := res.Model.Predict(s.Matrix.Rows(s.Test))
	if err != nil {
		return s, err
	}
	s.Report = forest.Evaluate(features.Select(s.Target, s.Test), pred)
	res.Model.Features = s.Matrix.Names
	res.Model.TestAccuracy = s.Report.Accuracy

	render.CVTrace(r.Out, res.Results)
	fmt.Fprintf(r.Out, "Best Parameters: %v\n", res.Best)
	fmt.Fprintf(r.Out, "Best Cross-Validation Accuracy: %.3f\n", res.BestScore)
	render.Report(r.Out, s.Report)

	if err := forest.Save(cfg.ModelPath, res.Model); err != nil {
		return s, err
	}
	r.Logger.Info("saved model to %s", cfg.ModelPath)
	return s, nil
}
