package survey

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

const sample = `yummy,cheap,Like,Age,VisitFrequency,Gender
Yes,No,-3,61,Every three months,Female
No,Yes,+2,51,Every three months,Female
Yes,Yes,I love it!+5,62,Once a year,Male
No,No,4,,Once a week,Male
Yes,No,0,32,,Female
Maybe,No,1,40,Once a month,Male
No,Yes,3,23,Once a month,Male
`

func cleanSample(t *testing.T) *Dataset {
	t.Helper()
	df, err := Load(context.Background(), strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ds, err := Clean(df)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	return ds
}

func TestCleanDropsIncompleteRows(t *testing.T) {
	ds := cleanSample(t)

	want := []Record{
		{Attributes: []float64{1, 0}, Like: -3, Age: 61, VisitFrequency: "Every three months", Gender: "Female"},
		{Attributes: []float64{0, 1}, Like: 2, Age: 51, VisitFrequency: "Every three months", Gender: "Female"},
		{Attributes: []float64{0, 1}, Like: 3, Age: 23, VisitFrequency: "Once a month", Gender: "Male"},
	}
	if diff := cmp.Diff(want, ds.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"yummy", "cheap"}, ds.AttributeNames); diff != "" {
		t.Errorf("attribute names mismatch (-want +got):\n%s", diff)
	}
	if ds.Dropped != 4 {
		t.Errorf("Dropped = %d, want 4", ds.Dropped)
	}
}

func TestCleanInvariants(t *testing.T) {
	ds := cleanSample(t)
	for i, rec := range ds.Records {
		if rec.VisitFrequency == "" {
			t.Errorf("record %d has empty VisitFrequency", i)
		}
		for j, v := range rec.Attributes {
			if v != 0 && v != 1 {
				t.Errorf("record %d attribute %d = %v, want 0 or 1", i, j, v)
			}
		}
	}
}

func TestCleanMissingColumn(t *testing.T) {
	df, err := Load(context.Background(), strings.NewReader("yummy,Like,Age,Gender\nYes,1,30,Male\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = Clean(df)
	if errors.Cause(err) != ErrMissingColumn {
		t.Fatalf("Clean error = %v, want ErrMissingColumn", err)
	}
}

func TestLoadFile(t *testing.T) {
	if _, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("LoadFile on a missing file returned nil error")
	}

	path := filepath.Join(t.TempDir(), "survey.csv")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	df, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := df.NRows(); got != 7 {
		t.Errorf("NRows = %d, want 7", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"+2", 2, true},
		{"-3", -3, true},
		{" 4 ", 4, true},
		{"I hate it!-5", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
