package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marketseg/internal/forest"
	"marketseg/internal/profile"
	"marketseg/internal/segment"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("%s is empty", path)
	}
}

func sampleLinkage() ([]segment.Merge, int) {
	X := [][]float64{{0, 0}, {1, 0}, {4, 0}, {4, 1}, {9, 9}}
	return segment.WardLinkage(X), len(X)
}

func TestDendrogram(t *testing.T) {
	linkage, n := sampleLinkage()
	for _, lastP := range []int{0, 3} {
		path := filepath.Join(t.TempDir(), "dendrogram.png")
		if err := Dendrogram(linkage, n, lastP, path); err != nil {
			t.Fatalf("Dendrogram(lastP=%d): %v", lastP, err)
		}
		nonEmpty(t, path)
	}
	if err := Dendrogram(nil, 0, 0, filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("empty linkage rendered without error")
	}
}

func TestDendrogramDOT(t *testing.T) {
	linkage, n := sampleLinkage()

	full, err := DendrogramDOT(linkage, n, 0)
	if err != nil {
		t.Fatalf("DendrogramDOT: %v", err)
	}
	if got := strings.Count(full, "->"); got != 2*len(linkage) {
		t.Errorf("full tree has %d edges, want %d", got, 2*len(linkage))
	}

	truncated, err := DendrogramDOT(linkage, n, 2)
	if err != nil {
		t.Fatalf("DendrogramDOT: %v", err)
	}
	if got := strings.Count(truncated, "->"); got != 2 {
		t.Errorf("last-2 tree has %d edges, want 2", got)
	}
}

func TestMosaicAndProfiles(t *testing.T) {
	dir := t.TempDir()
	ct := profile.Crosstab{
		Levels: []float64{-1, 0, 3},
		Counts: [][]int{{2, 1, 0}, {0, 3, 4}},
	}
	if err := Mosaic(ct, filepath.Join(dir, "mosaic.png")); err != nil {
		t.Fatalf("Mosaic: %v", err)
	}
	nonEmpty(t, filepath.Join(dir, "mosaic.png"))

	segs := []profile.Segment{
		{ID: 0, Size: 3, MeanVisitFrequency: 1, MeanLike: -1, Share: 0.2},
		{ID: 1, Size: 7, MeanVisitFrequency: 3.5, MeanLike: 2, Share: 0.8},
	}
	if err := SegmentProfiles(segs, "Female", filepath.Join(dir, "segments.png")); err != nil {
		t.Fatalf("SegmentProfiles: %v", err)
	}
	nonEmpty(t, filepath.Join(dir, "segments.png"))
}

func TestSegmentPage(t *testing.T) {
	var buf bytes.Buffer
	points := [][]float64{{0, 1}, {1, 0}, {2, 2}}
	err := SegmentPage(&buf, points, []int{0, 1, 1}, []Score{{"K-Means", 0.5}, {"GMM", 0.4}})
	if err != nil {
		t.Fatalf("SegmentPage: %v", err)
	}
	for _, want := range []string{"Segment 0", "Segment 1", "K-Means", "<html"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("page lacks %q", want)
		}
	}
	if err := SegmentPage(&buf, points, []int{0}, nil); err == nil {
		t.Error("mismatched labels accepted")
	}
}

func TestConsoleTables(t *testing.T) {
	var buf bytes.Buffer
	Silhouettes(&buf, []Score{{"K-Means", 0.41234}})
	Contingency(&buf, "K-Means", "Hierarchical", []int{0, 1}, [][]int{{5, 0}, {1, 4}})
	Profiles(&buf, []profile.Segment{{ID: 2, Size: 9, MeanLike: 1.5}}, "Female")
	Report(&buf, forest.Evaluate([]string{"F", "M"}, []string{"F", "M"}))
	CVTrace(&buf, []forest.CVResult{{Mean: 0.5}, {Mean: 0.7}, {Mean: 0.6}})

	out := buf.String()
	for _, want := range []string{"0.412", "HIERARCHICAL", "SHARE FEMALE", "Accuracy: 1.000", "macro avg", "mean CV accuracy"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output lacks %q:\n%s", want, out)
		}
	}
}
