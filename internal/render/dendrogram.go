// Package render draws the segmentation report: static plots, an HTML
// chart page, a Graphviz export and console tables.
package render

import (
	"fmt"
	"image/color"
	"os"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"marketseg/internal/segment"
)

// maxLeafLabels caps how many leaves get a tick label before the axis
// becomes unreadable.
const maxLeafLabels = 60

// tree walks a linkage, expanding only the last `lastP-1` merges when lastP
// is positive. Collapsed subtrees become single leaves.
type tree struct {
	linkage []segment.Merge
	n       int
	lastP   int
}

func (t tree) expanded(id int) bool {
	if id < t.n {
		return false
	}
	if t.lastP <= 0 || t.lastP >= t.n {
		return true
	}
	return id-t.n >= len(t.linkage)-(t.lastP-1)
}

func (t tree) size(id int) int {
	if id < t.n {
		return 1
	}
	return t.linkage[id-t.n].Size
}

func (t tree) label(id int) string {
	if id < t.n {
		return fmt.Sprint(id)
	}
	return fmt.Sprintf("(%d)", t.size(id))
}

func (t tree) root() int { return t.n + len(t.linkage) - 1 }

// Dendrogram renders the Ward merge tree as a PNG.
func Dendrogram(linkage []segment.Merge, n, lastP int, path string) error {
	if len(linkage) == 0 {
		return errors.New("dendrogram: empty linkage")
	}
	t := tree{linkage: linkage, n: n, lastP: lastP}

	p := plot.New()
	p.Title.Text = "Dendrogram for Hierarchical Clustering"
	p.X.Label.Text = "Sample Index"
	p.Y.Label.Text = "Distance"

	var ticks []plot.Tick
	var lines []plot.Plotter
	slot := 0
	var walk func(id int) (x, h float64, err error)
	walk = func(id int) (float64, float64, error) {
		if !t.expanded(id) {
			x := float64(10*slot + 5)
			slot++
			ticks = append(ticks, plot.Tick{Value: x, Label: t.label(id)})
			return x, 0, nil
		}
		m := linkage[id-n]
		xa, ha, err := walk(m.A)
		if err != nil {
			return 0, 0, err
		}
		xb, hb, err := walk(m.B)
		if err != nil {
			return 0, 0, err
		}
		l, err := plotter.NewLine(plotter.XYs{{X: xa, Y: ha}, {X: xa, Y: m.Height}, {X: xb, Y: m.Height}, {X: xb, Y: hb}})
		if err != nil {
			return 0, 0, err
		}
		l.Color = color.RGBA{B: 180, A: 255}
		lines = append(lines, l)
		return (xa + xb) / 2, m.Height, nil
	}
	if _, _, err := walk(t.root()); err != nil {
		return errors.Wrap(err, "dendrogram")
	}
	p.Add(lines...)

	if len(ticks) <= maxLeafLabels {
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	} else {
		p.X.Tick.Marker = plot.ConstantTicks(nil)
	}
	return errors.Wrap(p.Save(10*vg.Inch, 7*vg.Inch, path), "save dendrogram")
}

// DendrogramDOT exports the same (optionally truncated) tree as a Graphviz
// digraph with edges pointing from merged clusters to their children.
func DendrogramDOT(linkage []segment.Merge, n, lastP int) (string, error) {
	if len(linkage) == 0 {
		return "", errors.New("dendrogram: empty linkage")
	}
	t := tree{linkage: linkage, n: n, lastP: lastP}

	const name = "dendrogram"
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	var walk func(id int) (string, error)
	walk = func(id int) (string, error) {
		node := fmt.Sprintf("c%d", id)
		if !t.expanded(id) {
			return node, g.AddNode(name, node, map[string]string{
				"label": fmt.Sprintf("%q", t.label(id)),
				"shape": "box",
			})
		}
		m := linkage[id-n]
		if err := g.AddNode(name, node, map[string]string{
			"label": fmt.Sprintf("%q", fmt.Sprintf("%.3f (%d)", m.Height, m.Size)),
		}); err != nil {
			return "", err
		}
		for _, child := range []int{m.A, m.B} {
			c, err := walk(child)
			if err != nil {
				return "", err
			}
			if err := g.AddEdge(node, c, true, nil); err != nil {
				return "", err
			}
		}
		return node, nil
	}
	if _, err := walk(t.root()); err != nil {
		return "", errors.Wrap(err, "dendrogram dot")
	}
	return g.String(), nil
}

// WriteDendrogramDOT writes DendrogramDOT output to path.
func WriteDendrogramDOT(linkage []segment.Merge, n, lastP int, path string) error {
	dot, err := DendrogramDOT(linkage, n, lastP)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, []byte(dot), 0o644), "write dendrogram dot")
}
