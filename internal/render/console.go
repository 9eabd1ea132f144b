package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"marketseg/internal/forest"
	"marketseg/internal/profile"
)

func f3(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// Silhouettes prints one row per clustering method.
func Silhouettes(w io.Writer, scores []Score) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Method", "Silhouette"})
	for _, s := range scores {
		table.Append([]string{s.Name, f3(s.Value)})
	}
	table.Render()
}

// Contingency prints a cross tabulation of two labelings.
func Contingency(w io.Writer, rowName, colName string, labels []int, counts [][]int) {
	fmt.Fprintf(w, "Contingency table (rows: %s, columns: %s)\n", rowName, colName)
	table := tablewriter.NewWriter(w)
	header := []string{rowName + " \\ " + colName}
	for _, l := range labels {
		header = append(header, strconv.Itoa(l))
	}
	table.SetHeader(header)
	for i, row := range counts {
		cells := []string{strconv.Itoa(labels[i])}
		for _, c := range row {
			cells = append(cells, strconv.Itoa(c))
		}
		table.Append(cells)
	}
	table.Render()
}

func Agreement(w io.Writer, scores []Score) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pair", "Adjusted Rand"})
	for _, s := range scores {
		table.Append([]string{s.Name, f3(s.Value)})
	}
	table.Render()
}

func Profiles(w io.Writer, segs []profile.Segment, category string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Segment", "Size", "Mean Visit Frequency", "Mean Like", "Share " + category})
	for _, s := range segs {
		table.Append([]string{strconv.Itoa(s.ID), strconv.Itoa(s.Size), f3(s.MeanVisitFrequency), f3(s.MeanLike), f3(s.Share)})
	}
	table.Render()
}

// Report prints accuracy and the per-class precision/recall/F1 table.
func Report(w io.Writer, rep forest.Report) {
	fmt.Fprintf(w, "Accuracy: %.3f\n", rep.Accuracy)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Class", "Precision", "Recall", "F1", "Support"})
	for _, m := range append(append([]forest.ClassMetrics(nil), rep.Classes...), rep.Macro, rep.Weighted) {
		table.Append([]string{m.Class, f3(m.Precision), f3(m.Recall), f3(m.F1), strconv.Itoa(m.Support)})
	}
	table.Render()
}

// CVTrace charts the mean cross-validated accuracy of each grid candidate
// in grid order.
func CVTrace(w io.Writer, results []forest.CVResult) {
	if len(results) < 2 {
		return
	}
	means := make([]float64, len(results))
	flat := true
	for i, r := range results {
		means[i] = r.Mean
		flat = flat && r.Mean == means[0]
	}
	if flat {
		fmt.Fprintf(w, "mean CV accuracy %.3f for every grid candidate\n", means[0])
		return
	}
	fmt.Fprintln(w, asciigraph.Plot(means,
		asciigraph.Height(10),
		asciigraph.Caption("mean CV accuracy per grid candidate"),
	))
}
