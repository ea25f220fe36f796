package detection

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	boxThickness = 3
	labelHeight  = 20
	labelPad     = 5
)

// Palette holds the annotation colors for each part class plus the
// summary overlay text.
type Palette struct {
	Nut     color.RGBA
	Bolt    color.RGBA
	Screw   color.RGBA
	Washer  color.RGBA
	Summary color.RGBA
}

// DefaultPalette returns the standard scheme: green nuts, blue bolts,
// red screws, cyan washers, yellow summary text.
func DefaultPalette() Palette {
	return Palette{
		Nut:     color.RGBA{0, 255, 0, 255},
		Bolt:    color.RGBA{0, 0, 255, 255},
		Screw:   color.RGBA{255, 0, 0, 255},
		Washer:  color.RGBA{0, 255, 255, 255},
		Summary: color.RGBA{255, 255, 0, 255},
	}
}

// PaletteFromHex builds a palette from "#RRGGBB" strings, typically
// sourced from configuration.
func PaletteFromHex(nut, bolt, screw, washer, summary string) (Palette, error) {
	p := Palette{}
	for _, entry := range []struct {
		hex string
		dst *color.RGBA
	}{
		{nut, &p.Nut},
		{bolt, &p.Bolt},
		{screw, &p.Screw},
		{washer, &p.Washer},
		{summary, &p.Summary},
	} {
		c, err := colorful.Hex(entry.hex)
		if err != nil {
			return Palette{}, fmt.Errorf("parse palette color %q: %w", entry.hex, err)
		}
		r, g, b := c.RGB255()
		*entry.dst = color.RGBA{r, g, b, 255}
	}
	return p, nil
}

func (p Palette) colorFor(t PartType) color.RGBA {
	switch t {
	case PartNut:
		return p.Nut
	case PartBolt:
		return p.Bolt
	case PartScrew:
		return p.Screw
	case PartWasher:
		return p.Washer
	}
	return p.Summary
}

// Summary carries the session-level lines drawn onto the annotated
// image alongside the per-object boxes.
type Summary struct {
	// MostFrequent is the consensus count across the recent window.
	MostFrequent int

	// AvgConfidence is the mean confidence of the accepted objects,
	// rendered as a percentage.
	AvgConfidence float64
}

// Annotate renders the detection result onto a copy of the input
// image, which keeps its dimensions. Each accepted object gets a
// 3-pixel bounding box in its class color and a filled label plate
// reading TYPE#rank (for example NUT#1) above the box. Three summary
// lines are drawn over the image: the accepted count, the consensus
// count, and the average confidence as a percentage. All drawing clips
// at the image edges.
func Annotate(img image.Image, res *Result, sum Summary, p Palette) *image.RGBA {
	out := clone.AsRGBA(img)
	if !out.Bounds().Min.Eq(image.Point{}) {
		// Detection coordinates are origin-normalized; realign the
		// canvas to match before drawing.
		norm := image.NewRGBA(image.Rect(0, 0, out.Bounds().Dx(), out.Bounds().Dy()))
		draw.Draw(norm, norm.Bounds(), out, out.Bounds().Min, draw.Src)
		out = norm
	}
	if res == nil {
		res = emptyResult()
	}

	white := color.RGBA{255, 255, 255, 255}
	for _, obj := range res.Objects {
		c := p.colorFor(obj.Type)
		drawBox(out, obj.Bounds, c, boxThickness)

		label := fmt.Sprintf("%s#%d", strings.ToUpper(string(obj.Type)), obj.Rank)
		labelW := font.MeasureString(basicfont.Face7x13, label).Ceil()
		plate := image.Rect(obj.Bounds.X, obj.Bounds.Y-labelHeight,
			obj.Bounds.X+labelW+labelPad, obj.Bounds.Y)
		fillRect(out, plate, c)
		drawText(out, label, obj.Bounds.X+2, obj.Bounds.Y-6, white)
	}

	height := out.Bounds().Dy()
	drawText(out, fmt.Sprintf("Objects Detected: %d", res.Count), 10, 30, p.Summary)
	drawText(out, fmt.Sprintf("Most Frequent: %d", sum.MostFrequent), 10, 60, p.Summary)
	drawText(out, fmt.Sprintf("Confidence: %.1f%%", sum.AvgConfidence*100), 10, height-20, p.Summary)

	return out
}

// drawBox strokes the bounding box with the given border thickness,
// growing inward.
func drawBox(dst *image.RGBA, b Bounds, c color.RGBA, thickness int) {
	x0, y0 := b.X, b.Y
	x1, y1 := b.X+b.Width, b.Y+b.Height
	fillRect(dst, image.Rect(x0, y0, x1, y0+thickness), c)
	fillRect(dst, image.Rect(x0, y1-thickness, x1, y1), c)
	fillRect(dst, image.Rect(x0, y0, x0+thickness, y1), c)
	fillRect(dst, image.Rect(x1-thickness, y0, x1, y1), c)
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func drawText(dst *image.RGBA, s string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
