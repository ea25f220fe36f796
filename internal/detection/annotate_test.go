package detection

import (
	"image"
	"image/color"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	if p.Nut != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("nut color: got %v", p.Nut)
	}
	if p.Bolt != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("bolt color: got %v", p.Bolt)
	}
	if p.Screw != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("screw color: got %v", p.Screw)
	}
	if p.Washer != (color.RGBA{0, 255, 255, 255}) {
		t.Errorf("washer color: got %v", p.Washer)
	}
	if p.Summary != (color.RGBA{255, 255, 0, 255}) {
		t.Errorf("summary color: got %v", p.Summary)
	}
}

func TestPaletteFromHex(t *testing.T) {
	p, err := PaletteFromHex("#00ff00", "#0000FF", "#ff0000", "#00FFFF", "#FFFF00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Nut != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("nut color: got %v", p.Nut)
	}
	if p.Screw != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("screw color: got %v", p.Screw)
	}

	if _, err := PaletteFromHex("red", "#0000FF", "#FF0000", "#00FFFF", "#FFFF00"); err == nil {
		t.Error("expected error for non-hex color name")
	}
	if _, err := PaletteFromHex("#00FF00", "#0000FF", "#FF0000", "#00FFFF", ""); err == nil {
		t.Error("expected error for empty color")
	}
}

func TestPaletteColorFor(t *testing.T) {
	p := DefaultPalette()
	tests := []struct {
		t    PartType
		want color.RGBA
	}{
		{PartNut, p.Nut},
		{PartBolt, p.Bolt},
		{PartScrew, p.Screw},
		{PartWasher, p.Washer},
		{PartType("gizmo"), p.Summary},
	}
	for _, tt := range tests {
		if got := p.colorFor(tt.t); got != tt.want {
			t.Errorf("colorFor(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

// containsColor reports whether any pixel inside r matches c exactly.
func containsColor(img *image.RGBA, r image.Rectangle, c color.RGBA) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}

func TestAnnotate_DrawsBoxAndLabel(t *testing.T) {
	img := createTrayImage(200, 200)
	p := DefaultPalette()
	res := &Result{
		Count: 1,
		Objects: []Object{{
			Type:       PartNut,
			Confidence: 0.9,
			Bounds:     Bounds{X: 50, Y: 60, Width: 40, Height: 30},
			Rank:       1,
		}},
		Tally: map[PartType]int{PartNut: 1},
	}

	out := Annotate(img, res, Summary{MostFrequent: 1, AvgConfidence: 0.9}, p)

	if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 200 {
		t.Fatalf("output size: got %dx%d, want 200x200", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// Border corners and edges take the class color.
	if got := out.RGBAAt(50, 60); got != p.Nut {
		t.Errorf("top-left border pixel: got %v, want %v", got, p.Nut)
	}
	if got := out.RGBAAt(70, 88); got != p.Nut {
		t.Errorf("bottom border pixel: got %v, want %v", got, p.Nut)
	}
	if got := out.RGBAAt(51, 75); got != p.Nut {
		t.Errorf("left border pixel: got %v, want %v", got, p.Nut)
	}

	// Interior stays untouched.
	if got := out.RGBAAt(70, 75); got != trayGray {
		t.Errorf("interior pixel: got %v, want %v", got, trayGray)
	}

	// The label plate sits directly above the box and carries white
	// glyphs on the class color.
	if got := out.RGBAAt(51, 45); got != p.Nut {
		t.Errorf("plate pixel: got %v, want %v", got, p.Nut)
	}
	plate := image.Rect(50, 40, 90, 60)
	if !containsColor(out, plate, color.RGBA{255, 255, 255, 255}) {
		t.Error("no white label glyphs found on the plate")
	}

	// Original image must stay untouched.
	if got := img.RGBAAt(50, 60); got != trayGray {
		t.Errorf("source image modified at border pixel: got %v", got)
	}
}

func TestAnnotate_SummaryLines(t *testing.T) {
	img := createTrayImage(300, 240)
	p := DefaultPalette()

	out := Annotate(img, emptyResult(), Summary{MostFrequent: 5, AvgConfidence: 0.875}, p)

	// First line baseline sits at y=30, last line at height-20.
	if !containsColor(out, image.Rect(10, 18, 200, 32), p.Summary) {
		t.Error("no summary glyphs near the top line")
	}
	if !containsColor(out, image.Rect(10, 48, 200, 62), p.Summary) {
		t.Error("no summary glyphs near the second line")
	}
	if !containsColor(out, image.Rect(10, 240-32, 200, 240-18), p.Summary) {
		t.Error("no summary glyphs near the bottom line")
	}
}

func TestAnnotate_NilResult(t *testing.T) {
	img := createTrayImage(120, 90)

	out := Annotate(img, nil, Summary{}, DefaultPalette())
	if out.Bounds().Dx() != 120 || out.Bounds().Dy() != 90 {
		t.Errorf("output size: got %dx%d, want 120x90", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestAnnotate_NormalizesSubImageOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(100, 100, 300, 260))
	for y := 100; y < 260; y++ {
		for x := 100; x < 300; x++ {
			src.Set(x, y, trayGray)
		}
	}

	out := Annotate(src, emptyResult(), Summary{}, DefaultPalette())

	if !out.Bounds().Min.Eq(image.Point{}) {
		t.Errorf("output origin: got %v, want (0,0)", out.Bounds().Min)
	}
	if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 160 {
		t.Errorf("output size: got %dx%d, want 200x160", out.Bounds().Dx(), out.Bounds().Dy())
	}
}
