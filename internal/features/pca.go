package features

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects rows onto the leading principal components, computed by SVD
// through stat.PC. Each component is sign-normalized so that its largest
// loading is positive, which keeps projections stable between runs.
type PCA struct {
	Components int

	Mean     []float64
	Loadings *mat.Dense // features x Components
	// ExplainedVarianceRatio holds the share of total variance per component.
	ExplainedVarianceRatio []float64
}

func (p *PCA) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 {
		return ErrEmpty
	}
	if p.Components < 1 {
		return errors.Errorf("pca: components must be positive, got %d", p.Components)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return errors.New("pca: singular value decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)
	if _, avail := vecs.Dims(); avail < p.Components {
		return errors.Errorf("pca: %d components requested, data supports %d", p.Components, avail)
	}

	p.Loadings = mat.NewDense(c, p.Components, nil)
	p.Loadings.Copy(vecs.Slice(0, c, 0, p.Components))
	for k := 0; k < p.Components; k++ {
		col := mat.Col(nil, k, p.Loadings)
		if col[floats.MaxIdx(absAll(col))] < 0 {
			floats.Scale(-1, col)
			p.Loadings.SetCol(k, col)
		}
	}

	total := floats.Sum(vars)
	p.ExplainedVarianceRatio = make([]float64, p.Components)
	for k := range p.ExplainedVarianceRatio {
		if total > 0 {
			p.ExplainedVarianceRatio[k] = vars[k] / total
		}
	}

	p.Mean = make([]float64, c)
	col := make([]float64, r)
	for j := range p.Mean {
		mat.Col(col, j, X)
		p.Mean[j] = stat.Mean(col, nil)
	}
	return nil
}

// Transform returns the n x Components projection of X.
func (p *PCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	if c != len(p.Mean) {
		return nil, errors.Errorf("pca fitted on %d columns, got %d", len(p.Mean), c)
	}
	centered := mat.NewDense(r, c, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - p.Mean[j] }, X)
	var out mat.Dense
	out.Mul(centered, p.Loadings)
	return &out, nil
}

func (p *PCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
