package segment

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// GaussianMixture fits K full-covariance Gaussians by expectation
// maximization, starting from a single k-means run. Labels are the
// component with the highest responsibility; a component that wins no
// point claims the point it is most responsible for.
type GaussianMixture struct {
	K        int
	MaxIter  int
	Tol      float64
	RegCovar float64
	Seed     int64

	Weights     []float64
	Means       [][]float64
	Covariances []*mat.SymDense
	LowerBound  float64
	Converged   bool
	Iterations  int
}

func NewGaussianMixture(k int, seed int64) *GaussianMixture {
	return &GaussianMixture{K: k, MaxIter: 100, Tol: 1e-3, RegCovar: 1e-6, Seed: seed}
}

func (g *GaussianMixture) Fit(X [][]float64) ([]int, error) {
	km := &KMeans{K: g.K, MaxIter: 300, NInit: 1, Tol: 1e-4, Seed: g.Seed}
	labels, err := km.Fit(X)
	if err != nil {
		return nil, errors.Wrap(err, "gmm init")
	}

	resp := make([][]float64, len(X))
	for i, l := range labels {
		resp[i] = make([]float64, g.K)
		resp[i][l] = 1
	}
	g.maximize(X, resp)

	g.LowerBound = math.Inf(-1)
	g.Converged = false
	for g.Iterations = 1; g.Iterations <= g.MaxIter; g.Iterations++ {
		prev := g.LowerBound
		bound, err := g.expect(X, resp)
		if err != nil {
			return nil, err
		}
		g.maximize(X, resp)
		g.LowerBound = bound
		if math.Abs(bound-prev) < g.Tol {
			g.Converged = true
			break
		}
	}
	if _, err := g.expect(X, resp); err != nil {
		return nil, err
	}
	return harden(resp, g.K), nil
}

// expect fills resp with posterior responsibilities and returns the mean
// log-likelihood per point.
func (g *GaussianMixture) expect(X [][]float64, resp [][]float64) (float64, error) {
	comps := make([]*distmv.Normal, g.K)
	for k := range comps {
		n, ok := distmv.NewNormal(g.Means[k], g.Covariances[k], nil)
		if !ok {
			return 0, errors.Errorf("gmm: covariance of component %d is not positive definite", k)
		}
		comps[k] = n
	}
	total := 0.0
	logp := make([]float64, g.K)
	for i, p := range X {
		for k, n := range comps {
			logp[k] = math.Log(g.Weights[k]) + n.LogProb(p)
		}
		norm := floats.LogSumExp(logp)
		total += norm
		for k := range logp {
			resp[i][k] = math.Exp(logp[k] - norm)
		}
	}
	return total / float64(len(X)), nil
}

func (g *GaussianMixture) maximize(X [][]float64, resp [][]float64) {
	dim := len(X[0])
	nk := make([]float64, g.K)
	for _, r := range resp {
		floats.Add(nk, r)
	}

	g.Weights = make([]float64, g.K)
	g.Means = make([][]float64, g.K)
	g.Covariances = make([]*mat.SymDense, g.K)
	for k := 0; k < g.K; k++ {
		nk[k] += 10 * epsilon
		g.Weights[k] = nk[k] / float64(len(X))

		mu := make([]float64, dim)
		for i, p := range X {
			floats.AddScaled(mu, resp[i][k], p)
		}
		floats.Scale(1/nk[k], mu)
		g.Means[k] = mu

		cov := mat.NewSymDense(dim, nil)
		diff := make([]float64, dim)
		for i, p := range X {
			floats.SubTo(diff, p, mu)
			cov.SymRankOne(cov, resp[i][k]/nk[k], mat.NewVecDense(dim, diff))
		}
		for j := 0; j < dim; j++ {
			cov.SetSym(j, j, cov.At(j, j)+g.RegCovar)
		}
		g.Covariances[k] = cov
	}
}

// epsilon matches float64 machine epsilon; it keeps empty components from
// dividing by zero.
const epsilon = 2.220446049250313e-16

func harden(resp [][]float64, k int) []int {
	labels := make([]int, len(resp))
	counts := make([]int, k)
	for i, r := range resp {
		labels[i] = floats.MaxIdx(r)
		counts[labels[i]]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		pick, best := -1, -1.0
		for i, r := range resp {
			if counts[labels[i]] > 1 && r[c] > best {
				pick, best = i, r[c]
			}
		}
		if pick < 0 {
			break
		}
		counts[labels[pick]]--
		labels[pick] = c
		counts[c]++
	}
	return labels
}
