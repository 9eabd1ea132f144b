package segment

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

// blobs returns four tight groups of five points and their true groups.
func blobs() ([][]float64, []int) {
	centers := [][]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}}
	offsets := [][]float64{{0, 0}, {0.3, 0.1}, {-0.2, 0.25}, {0.1, -0.3}, {-0.25, -0.1}}
	var X [][]float64
	var truth []int
	for c, center := range centers {
		for _, o := range offsets {
			X = append(X, []float64{center[0] + o[0], center[1] + o[1]})
			truth = append(truth, c)
		}
	}
	return X, truth
}

type clusterer interface {
	Fit([][]float64) ([]int, error)
}

func methods() map[string]clusterer {
	return map[string]clusterer{
		"kmeans": NewKMeans(4, 42),
		"gmm":    NewGaussianMixture(4, 42),
		"ward":   NewWard(4),
	}
}

func distinct(labels []int) int {
	seen := map[int]bool{}
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}

func TestMethodsRecoverBlobs(t *testing.T) {
	X, truth := blobs()
	for name, m := range methods() {
		t.Run(name, func(t *testing.T) {
			labels, err := m.Fit(X)
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if got := distinct(labels); got != 4 {
				t.Errorf("distinct labels = %d, want 4", got)
			}
			if ari := AdjustedRand(truth, labels); ari < 0.999 {
				t.Errorf("adjusted rand vs truth = %v, want 1", ari)
			}
			s, err := Silhouette(X, labels)
			if err != nil {
				t.Fatalf("Silhouette: %v", err)
			}
			if s < 0.9 || s > 1 {
				t.Errorf("silhouette = %v, want in [0.9, 1]", s)
			}
		})
	}
}

func TestMethodsUseFourLabelsWithDuplicates(t *testing.T) {
	X := [][]float64{
		{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0},
		{1, 0}, {0, 1},
		{5, 5}, {5, 5}, {5, 5},
	}
	for name, m := range methods() {
		t.Run(name, func(t *testing.T) {
			labels, err := m.Fit(X)
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if got := distinct(labels); got != 4 {
				t.Errorf("distinct labels = %d (%v), want 4", got, labels)
			}
		})
	}
}

func TestMethodsRejectTooFewPoints(t *testing.T) {
	X := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	for name, m := range methods() {
		if _, err := m.Fit(X); err == nil {
			t.Errorf("%s: Fit on 3 points with k=4 returned nil error", name)
		}
	}
}

func TestKMeansDeterministic(t *testing.T) {
	X, _ := blobs()
	a, err := NewKMeans(4, 7).Fit(X)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewKMeans(4, 7).Fit(X)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different labels (-a +b):\n%s", diff)
	}
}

func TestKMeansPredict(t *testing.T) {
	X, _ := blobs()
	km := NewKMeans(4, 42)
	labels, err := km.Fit(X)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(labels, km.Predict(X)); diff != "" {
		t.Errorf("Predict disagrees with Fit (-fit +predict):\n%s", diff)
	}
}

func TestWardLinkage(t *testing.T) {
	X := [][]float64{{0, 0}, {1, 0}, {4, 0}}
	got := WardLinkage(X)
	want := []Merge{
		{A: 0, B: 1, Height: 1, Size: 2},
		{A: 2, B: 3, Height: math.Sqrt(49.0 / 3), Size: 3},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("linkage mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 1}, Cut(got, 3, 2)); diff != "" {
		t.Errorf("Cut(2) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, Cut(got, 3, 3)); diff != "" {
		t.Errorf("Cut(3) mismatch (-want +got):\n%s", diff)
	}
}

func TestSilhouette(t *testing.T) {
	X := [][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}}
	s, err := Silhouette(X, []int{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	b := (10 + math.Sqrt(101)) / 2
	want := (b - 1) / b
	if math.Abs(s-want) > 1e-12 {
		t.Errorf("silhouette = %v, want %v", s, want)
	}

	if s, err := Silhouette(X, []int{0, 1, 0, 1}); err != nil || s < -1 || s > 0 {
		t.Errorf("crossed labels silhouette = %v, %v; want negative", s, err)
	}
	if _, err := Silhouette(X, []int{3, 3, 3, 3}); err == nil {
		t.Error("single label silhouette returned nil error")
	}
}

func TestContingency(t *testing.T) {
	labels, table := Contingency([]int{0, 0, 1, 2, 2}, []int{1, 1, 0, 2, 0})
	if diff := cmp.Diff([]int{0, 1, 2}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	want := [][]int{
		{0, 2, 0},
		{1, 0, 0},
		{1, 0, 1},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestAdjustedRand(t *testing.T) {
	if got := AdjustedRand([]int{0, 0, 1, 1}, []int{5, 5, 2, 2}); got != 1 {
		t.Errorf("renamed partition ARI = %v, want 1", got)
	}
	if got := AdjustedRand([]int{0, 0, 1, 1}, []int{0, 1, 0, 1}); got >= 0 {
		t.Errorf("crossed partition ARI = %v, want negative", got)
	}
}

func TestPoints(t *testing.T) {
	got := Points(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	if diff := cmp.Diff([][]float64{{1, 2}, {3, 4}}, got); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
}
