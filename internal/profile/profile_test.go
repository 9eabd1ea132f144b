package profile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"marketseg/internal/survey"
)

func rec(visit string, like float64, gender string) survey.Record {
	return survey.Record{VisitFrequency: visit, Like: like, Gender: gender}
}

func TestBuildTwoSegments(t *testing.T) {
	ds := &survey.Dataset{Records: []survey.Record{
		rec("Never", -2, "Female"),
		rec("Once a month", 1, "Male"),
		rec("Once a year", 0, "Female"),
		rec("Once a week", 4, "Male"),
		rec("More than once a week", 5, "Female"),
		rec("Every three months", 3, "Male"),
	}}
	labels := []int{0, 1, 0, 1, 1, 0}

	got, err := Build(ds, labels, 2, "Female")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Segment{
		{ID: 0, Size: 3, MeanVisitFrequency: (0 + 1 + 2) / 3.0, MeanLike: (-2 + 0 + 3) / 3.0, Share: 2 / 3.0},
		{ID: 1, Size: 3, MeanVisitFrequency: (3 + 4 + 5) / 3.0, MeanLike: (1 + 4 + 5) / 3.0, Share: 1 / 3.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSkipsUnknownVisitFrequency(t *testing.T) {
	ds := &survey.Dataset{Records: []survey.Record{
		rec("Once a week", 2, "Male"),
		rec("Sometimes", 4, "Male"),
	}}
	got, err := Build(ds, []int{0, 0}, 1, "Female")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].MeanVisitFrequency != 4 || got[0].MeanLike != 3 || got[0].Share != 0 {
		t.Errorf("profile = %+v", got[0])
	}
}

func TestBuildRejectsBadLabels(t *testing.T) {
	ds := &survey.Dataset{Records: []survey.Record{rec("Never", 0, "Male")}}
	if _, err := Build(ds, []int{2}, 2, "Female"); err == nil {
		t.Error("label outside range accepted")
	}
	if _, err := Build(ds, nil, 2, "Female"); err == nil {
		t.Error("label count mismatch accepted")
	}
}

func TestLikeCrosstab(t *testing.T) {
	ds := &survey.Dataset{Records: []survey.Record{
		rec("Never", 3, "Male"),
		rec("Never", -1, "Male"),
		rec("Never", 3, "Male"),
		rec("Never", 0, "Male"),
	}}
	got := LikeCrosstab(ds, []int{0, 1, 1, 0}, 2)
	want := Crosstab{
		Levels: []float64{-1, 0, 3},
		Counts: [][]int{{0, 1, 1}, {1, 0, 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("crosstab mismatch (-want +got):\n%s", diff)
	}
}
