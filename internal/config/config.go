// Package config holds the run settings. Every field has a working default,
// so a missing config file is fine.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DataPath  string `yaml:"data_path"`
	OutputDir string `yaml:"output_dir"`
	ModelPath string `yaml:"model_path"`
	LogLevel  string `yaml:"log_level"`

	PositiveTarget string  `yaml:"positive_target"`
	TestSize       float64 `yaml:"test_size"`
	SplitSeed      int64   `yaml:"split_seed"`

	Segments       int   `yaml:"segments"`
	ClusterSeed    int64 `yaml:"cluster_seed"`
	DendrogramLast int   `yaml:"dendrogram_last"`

	Folds      int   `yaml:"folds"`
	Workers    int   `yaml:"workers"`
	ForestSeed int64 `yaml:"forest_seed"`
	Grid       Grid  `yaml:"grid"`
}

// Grid lists candidate hyperparameters. A MaxDepth of 0 means unlimited.
type Grid struct {
	Trees           []int `yaml:"trees"`
	MaxDepth        []int `yaml:"max_depth"`
	MinSamplesSplit []int `yaml:"min_samples_split"`
	MinSamplesLeaf  []int `yaml:"min_samples_leaf"`
}

func Default() Config {
	return Config{
		DataPath:       "mcdonalds.csv",
		OutputDir:      "report",
		ModelPath:      "best_rf_gender_model.gob",
		LogLevel:       "info",
		PositiveTarget: "Female",
		TestSize:       0.25,
		SplitSeed:      0,
		Segments:       4,
		ClusterSeed:    42,
		DendrogramLast: 0,
		Folds:          5,
		Workers:        0,
		ForestSeed:     0,
		Grid: Grid{
			Trees:           []int{100, 200, 300},
			MaxDepth:        []int{0, 10, 20, 30},
			MinSamplesSplit: []int{2, 5, 10},
			MinSamplesLeaf:  []int{1, 2, 4},
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.DataPath == "":
		return errors.New("config: data_path is empty")
	case c.PositiveTarget == "":
		return errors.New("config: positive_target is empty")
	case c.TestSize <= 0 || c.TestSize >= 1:
		return errors.Errorf("config: test_size %v outside (0, 1)", c.TestSize)
	case c.Segments < 2:
		return errors.Errorf("config: segments must be at least 2, got %d", c.Segments)
	case c.Folds < 2:
		return errors.Errorf("config: folds must be at least 2, got %d", c.Folds)
	case len(c.Grid.Trees) == 0 || len(c.Grid.MaxDepth) == 0 ||
		len(c.Grid.MinSamplesSplit) == 0 || len(c.Grid.MinSamplesLeaf) == 0:
		return errors.New("config: every grid axis needs at least one value")
	}
	return nil
}
