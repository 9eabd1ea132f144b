// Package features turns cleaned survey records into numeric matrices:
// one-hot encoding, train/test splitting, standardization and PCA.
package features

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"marketseg/internal/survey"
)

var ErrEmpty = errors.New("no rows to encode")

// Matrix is a named numeric encoding of the dataset, one row per record.
type Matrix struct {
	Names []string
	X     *mat.Dense
	// Groups maps each one-hot encoded source column to its output columns.
	Groups map[string][]int
}

func (m *Matrix) Dims() (rows, cols int) { return m.X.Dims() }

// Rows copies the selected rows into a new matrix.
func (m *Matrix) Rows(idx []int) *mat.Dense {
	_, c := m.X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, m.X.RawRowView(r))
	}
	return out
}

// Encode builds the feature matrix from every column except Gender, which
// is returned separately as the classification target. Binary attributes,
// Like and Age are kept as numbers; VisitFrequency is one-hot encoded with
// one column per observed category in sorted order.
func Encode(ds *survey.Dataset) (*Matrix, []string, error) {
	n := ds.Len()
	if n == 0 {
		return nil, nil, ErrEmpty
	}

	visits := make([]string, n)
	for i, rec := range ds.Records {
		visits[i] = rec.VisitFrequency
	}
	categories := uniqueSorted(visits)

	names := append([]string(nil), ds.AttributeNames...)
	names = append(names, survey.ColLike, survey.ColAge)
	base := len(names)
	group := make([]int, len(categories))
	index := make(map[string]int, len(categories))
	for j, c := range categories {
		names = append(names, survey.ColVisitFrequency+"_"+c)
		group[j] = base + j
		index[c] = base + j
	}

	X := mat.NewDense(n, len(names), nil)
	target := make([]string, n)
	for i, rec := range ds.Records {
		row := X.RawRowView(i)
		copy(row, rec.Attributes)
		row[len(rec.Attributes)] = rec.Like
		row[len(rec.Attributes)+1] = rec.Age
		row[index[rec.VisitFrequency]] = 1
		target[i] = rec.Gender
	}

	return &Matrix{
		Names:  names,
		X:      X,
		Groups: map[string][]int{survey.ColVisitFrequency: group},
	}, target, nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Split shuffles row indices with a fixed seed and holds out
// ceil(testSize*n) of them for evaluation. Class balance is not preserved.
func Split(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest > n {
		nTest = n
	}
	return perm[nTest:], perm[:nTest]
}

// Select picks labels by index, in index order.
func Select(labels []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, r := range idx {
		out[i] = labels[r]
	}
	return out
}
