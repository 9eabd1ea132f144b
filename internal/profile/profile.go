// Package profile summarizes market segments by visit frequency, liking and
// demographic mix.
package profile

import (
	"sort"

	"github.com/pkg/errors"

	"marketseg/internal/survey"
)

// VisitOrdinal ranks the VisitFrequency answers from 0 (never) to 5.
var VisitOrdinal = map[string]float64{
	"Never":                 0,
	"Once a year":           1,
	"Every three months":    2,
	"Once a month":          3,
	"Once a week":           4,
	"More than once a week": 5,
}

type Segment struct {
	ID                 int
	Size               int
	MeanVisitFrequency float64
	MeanLike           float64
	// Share is the proportion of respondents whose Gender equals the
	// profiled category.
	Share float64
}

// Build aggregates records per segment label. Visit frequency is averaged
// over rows with a known category only.
func Build(ds *survey.Dataset, labels []int, k int, category string) ([]Segment, error) {
	if len(labels) != ds.Len() {
		return nil, errors.Errorf("profile: %d labels for %d records", len(labels), ds.Len())
	}
	segs := make([]Segment, k)
	visitN := make([]int, k)
	matches := make([]int, k)
	for i := range segs {
		segs[i].ID = i
	}
	for i, rec := range ds.Records {
		l := labels[i]
		if l < 0 || l >= k {
			return nil, errors.Errorf("profile: label %d outside 0..%d", l, k-1)
		}
		s := &segs[l]
		s.Size++
		s.MeanLike += rec.Like
		if v, ok := VisitOrdinal[rec.VisitFrequency]; ok {
			s.MeanVisitFrequency += v
			visitN[l]++
		}
		if rec.Gender == category {
			matches[l]++
		}
	}
	for i := range segs {
		s := &segs[i]
		if s.Size > 0 {
			s.MeanLike /= float64(s.Size)
			s.Share = float64(matches[i]) / float64(s.Size)
		}
		if visitN[i] > 0 {
			s.MeanVisitFrequency /= float64(visitN[i])
		}
	}
	return segs, nil
}

// Crosstab counts respondents per (segment, Like level). Levels holds the
// observed Like values in ascending order.
type Crosstab struct {
	Levels []float64
	Counts [][]int // segment x level
}

func LikeCrosstab(ds *survey.Dataset, labels []int, k int) Crosstab {
	seen := map[float64]bool{}
	for _, rec := range ds.Records {
		seen[rec.Like] = true
	}
	levels := make([]float64, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Float64s(levels)
	pos := make(map[float64]int, len(levels))
	for i, v := range levels {
		pos[v] = i
	}

	counts := make([][]int, k)
	for i := range counts {
		counts[i] = make([]int, len(levels))
	}
	for i, rec := range ds.Records {
		if l := labels[i]; l >= 0 && l < k {
			counts[l][pos[rec.Like]]++
		}
	}
	return Crosstab{Levels: levels, Counts: counts}
}
