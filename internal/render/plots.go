package render

import (
	"fmt"
	"image/color"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"marketseg/internal/profile"
)

// Mosaic draws segment x Like: column widths follow segment sizes, tile
// heights follow the Like distribution inside each segment.
func Mosaic(ct profile.Crosstab, path string) error {
	total := 0
	sizes := make([]int, len(ct.Counts))
	for s, row := range ct.Counts {
		for _, c := range row {
			sizes[s] += c
		}
		total += sizes[s]
	}
	if total == 0 {
		return errors.New("mosaic: no observations")
	}

	p := plot.New()
	p.Title.Text = "Mosaic Plot: Segments vs Like"
	p.X.Label.Text = "Segment"
	p.Y.Label.Text = "Like"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	colors := cm.Palette(max(len(ct.Levels), 2)).Colors()

	const gap = 0.01
	usable := 1 - gap*float64(len(sizes)-1)
	var ticks []plot.Tick
	var tileLabels plotter.XYLabels
	x := 0.0
	for s, row := range ct.Counts {
		w := usable * float64(sizes[s]) / float64(total)
		ticks = append(ticks, plot.Tick{Value: x + w/2, Label: fmt.Sprint(s)})
		y := 0.0
		for lvl, c := range row {
			if c == 0 || sizes[s] == 0 {
				continue
			}
			h := float64(c) / float64(sizes[s])
			poly, err := plotter.NewPolygon(plotter.XYs{
				{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h},
			})
			if err != nil {
				return errors.Wrap(err, "mosaic tile")
			}
			poly.Color = colors[lvl]
			poly.LineStyle.Color = color.White
			p.Add(poly)
			if h > 0.04 && w > 0.04 {
				tileLabels.XYs = append(tileLabels.XYs, plotter.XY{X: x + w/2, Y: y + h/2})
				tileLabels.Labels = append(tileLabels.Labels, fmt.Sprintf("%+g", ct.Levels[lvl]))
			}
			y += h
		}
		x += w + gap
	}
	if len(tileLabels.Labels) > 0 {
		labels, err := plotter.NewLabels(tileLabels)
		if err != nil {
			return errors.Wrap(err, "mosaic labels")
		}
		p.Add(labels)
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	return errors.Wrap(p.Save(10*vg.Inch, 7*vg.Inch, path), "save mosaic")
}

// SegmentProfiles plots mean visit frequency against mean liking per
// segment, colored by the share of the profiled category, with a color bar.
func SegmentProfiles(segs []profile.Segment, category, path string) error {
	if len(segs) == 0 {
		return errors.New("segment profiles: nothing to plot")
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)

	xys := make(plotter.XYs, len(segs))
	names := make([]string, len(segs))
	for i, s := range segs {
		xys[i] = plotter.XY{X: s.MeanVisitFrequency, Y: s.MeanLike}
		names[i] = fmt.Sprint(s.ID)
	}

	p := plot.New()
	p.Title.Text = "Customer Segments: Visit Frequency vs Like Score"
	p.X.Label.Text = "Mean Visit Frequency"
	p.Y.Label.Text = "Mean Like Score"

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return errors.Wrap(err, "segment scatter")
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, err := cm.At(segs[i].Share)
		if err != nil {
			c = color.Black
		}
		return draw.GlyphStyle{Color: c, Radius: vg.Points(8), Shape: draw.CircleGlyph{}}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
	if err != nil {
		return errors.Wrap(err, "segment labels")
	}
	labels.Offset = vg.Point{X: vg.Points(10), Y: vg.Points(4)}
	p.Add(sc, labels)

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	bar.HideX()
	bar.Y.Label.Text = "Proportion of " + category

	const width, height = 10 * vg.Inch, 7 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)
	p.Draw(draw.Crop(dc, 0, -1.4*vg.Inch, 0, 0))
	bar.Draw(draw.Crop(dc, width-1.3*vg.Inch, 0, 0, 0))

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create segment plot")
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrap(err, "write segment plot")
	}
	return errors.Wrap(f.Close(), "close segment plot")
}
