package render

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// Score is a named metric value, e.g. one clustering method's silhouette.
type Score struct {
	Name  string
	Value float64
}

// SegmentPage renders an HTML page with the projected respondents colored
// by segment and a bar chart of silhouette scores.
func SegmentPage(w io.Writer, points [][]float64, labels []int, scores []Score) error {
	if len(points) != len(labels) {
		return errors.Errorf("segment page: %d points but %d labels", len(points), len(labels))
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Respondents on the first two principal components"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "PC1"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PC2"}),
	)

	bySegment := make(map[int][]opts.ScatterData)
	for i, p := range points {
		bySegment[labels[i]] = append(bySegment[labels[i]], opts.ScatterData{
			Value:      []interface{}{p[0], p[1]},
			SymbolSize: 6,
		})
	}
	ids := make([]int, 0, len(bySegment))
	for id := range bySegment {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		scatter.AddSeries(fmt.Sprintf("Segment %d", id), bySegment[id]).
			SetSeriesOptions(
				charts.WithLabelOpts(opts.Label{Show: pointer(false), Position: "top"}),
			)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Silhouette score per method"}))
	names := make([]string, len(scores))
	values := make([]opts.BarData, len(scores))
	for i, s := range scores {
		names[i] = s.Name
		values[i] = opts.BarData{Value: s.Value}
	}
	bar.SetXAxis(names).AddSeries("silhouette", values)

	page := components.NewPage()
	page.AddCharts(scatter, bar)
	return errors.Wrap(page.Render(w), "render segment page")
}

func WriteSegmentPage(path string, points [][]float64, labels []int, scores []Score) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create segment page")
	}
	if err := SegmentPage(f, points, labels, scores); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close segment page")
}

func pointer(b bool) *bool {
	return &b
}
