// Package survey loads the fast-food perception survey and turns raw CSV
// cells into clean respondent records.
package survey

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
)

// Fixed column names of the survey export. Every other column is a Yes/No
// perception attribute.
const (
	ColLike           = "Like"
	ColAge            = "Age"
	ColVisitFrequency = "VisitFrequency"
	ColGender         = "Gender"
)

var ErrMissingColumn = errors.New("missing required column")

// Record is one cleaned respondent.
type Record struct {
	Attributes     []float64
	Like           float64
	Age            float64
	VisitFrequency string
	Gender         string
}

type Dataset struct {
	AttributeNames []string
	Records        []Record
	Dropped        int
}

func (d *Dataset) Len() int { return len(d.Records) }

// Load reads CSV text into a dataframe with every column kept as strings.
func Load(ctx context.Context, r io.ReadSeeker) (*dataframe.DataFrame, error) {
	df, err := imports.LoadFromCSV(ctx, r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read survey csv")
	}
	return df, nil
}

func LoadFile(ctx context.Context, path string) (*dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open survey file")
	}
	defer file.Close()
	return Load(ctx, file)
}

// Clean converts the dataframe into records. Yes/No answers become 1/0 and
// Like and Age are coerced to numbers. Rows without a numeric Like, without a
// VisitFrequency, or that otherwise cannot be coerced are dropped and
// counted in Dataset.Dropped.
func Clean(df *dataframe.DataFrame) (*Dataset, error) {
	cols := make(map[string]dataframe.Series, len(df.Series))
	var attrs []dataframe.Series
	ds := &Dataset{}
	for _, s := range df.Series {
		name := s.Name()
		cols[name] = s
		switch name {
		case ColLike, ColAge, ColVisitFrequency, ColGender:
		default:
			attrs = append(attrs, s)
			ds.AttributeNames = append(ds.AttributeNames, name)
		}
	}
	for _, name := range []string{ColLike, ColAge, ColVisitFrequency, ColGender} {
		if _, ok := cols[name]; !ok {
			return nil, errors.Wrap(ErrMissingColumn, name)
		}
	}

	n := df.NRows()
	ds.Records = make([]Record, 0, n)
	for row := 0; row < n; row++ {
		rec, ok := cleanRow(row, cols, attrs)
		if !ok {
			ds.Dropped++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func cleanRow(row int, cols map[string]dataframe.Series, attrs []dataframe.Series) (Record, bool) {
	rec := Record{
		VisitFrequency: cell(cols[ColVisitFrequency], row),
		Gender:         cell(cols[ColGender], row),
	}
	if rec.VisitFrequency == "" || rec.Gender == "" {
		return rec, false
	}

	var ok bool
	if rec.Like, ok = ParseNumber(cell(cols[ColLike], row)); !ok {
		return rec, false
	}
	if rec.Age, ok = ParseNumber(cell(cols[ColAge], row)); !ok {
		return rec, false
	}

	rec.Attributes = make([]float64, len(attrs))
	for j, s := range attrs {
		if rec.Attributes[j], ok = ParseBinary(cell(s, row)); !ok {
			return rec, false
		}
	}
	return rec, true
}

func cell(s dataframe.Series, row int) string {
	switch v := s.Value(row).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ParseNumber coerces a cell to a finite float. Labels such as
// "I love it!+5" are not numbers and report false.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseBinary maps Yes/No (and an already encoded 1/0) to 1/0.
func ParseBinary(s string) (float64, bool) {
	switch strings.TrimSpace(s) {
	case "Yes", "1":
		return 1, true
	case "No", "0":
		return 0, true
	}
	return 0, false
}
