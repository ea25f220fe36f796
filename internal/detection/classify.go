package detection

import "math"

// PartType identifies one of the supported fastener classes.
type PartType string

const (
	PartNut    PartType = "nut"
	PartBolt   PartType = "bolt"
	PartScrew  PartType = "screw"
	PartWasher PartType = "washer"
)

// Features holds the shape measurements classification runs on.
//
// All values derive from the traced contour: Area is the enclosed
// polygon area, Perimeter the closed arc length, AspectRatio the
// bounding box width/height ratio, Extent the area over the bounding
// box area, and Circularity 4*pi*area/perimeter^2 (1.0 for a perfect
// circle, lower for elongated or ragged shapes).
type Features struct {
	Area        float64 `json:"area"`
	Perimeter   float64 `json:"perimeter"`
	AspectRatio float64 `json:"aspect_ratio"`
	Extent      float64 `json:"extent"`
	Circularity float64 `json:"circularity"`
}

// computeFeatures derives the feature vector and bounding box for a
// contour. ok is false for degenerate geometry: zero perimeter, a
// collapsed bounding box, or any non-finite measurement. Degenerate
// candidates are dropped silently rather than classified.
func computeFeatures(c Contour) (Features, Bounds, bool) {
	box := c.BoundingBox()
	if box.Width <= 0 || box.Height <= 0 {
		return Features{}, box, false
	}

	perimeter := c.Perimeter()
	if perimeter <= 0 {
		return Features{}, box, false
	}

	area := c.Area()
	f := Features{
		Area:        area,
		Perimeter:   perimeter,
		AspectRatio: float64(box.Width) / float64(box.Height),
		Extent:      area / float64(box.Width*box.Height),
		Circularity: 4 * math.Pi * area / (perimeter * perimeter),
	}

	for _, v := range []float64{f.Area, f.Perimeter, f.AspectRatio, f.Extent, f.Circularity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Features{}, box, false
		}
	}
	return f, box, true
}

// validShape reports whether the features describe a plausible part
// rather than a smear, streak or lighting artifact.
func validShape(f Features) bool {
	return f.AspectRatio > 0.3 && f.AspectRatio < 3.0 &&
		f.Extent > 0.2 &&
		f.Circularity > 0.1
}

// Classify assigns a part type from the feature vector.
//
// The rules are ordered and the first match wins, so a compact round
// shape is a nut even when its circularity would also satisfy the
// washer rule:
//
//	nut    0.6 < aspectRatio < 1.4 and circularity > 0.4
//	screw  aspectRatio > 2.0
//	washer circularity > 0.6
//	bolt   everything else
//
// Classification is a pure function of aspect ratio and circularity;
// the plausibility gate (validShape) is applied separately before it.
func Classify(f Features) PartType {
	switch {
	case f.AspectRatio > 0.6 && f.AspectRatio < 1.4 && f.Circularity > 0.4:
		return PartNut
	case f.AspectRatio > 2.0:
		return PartScrew
	case f.Circularity > 0.6:
		return PartWasher
	default:
		return PartBolt
	}
}

const (
	confidenceFloor = 0.30
	confidenceCeil  = 0.95
	areaNorm        = 500.0
)

// confidence scores a detection in [0.30, 0.95]: larger, rounder,
// better-filled shapes score higher. The clamp means no detection is
// ever presented as certain, and none scores below the floor.
func confidence(f Features) float64 {
	score := f.Area / areaNorm * f.Circularity * f.Extent
	return math.Max(confidenceFloor, math.Min(confidenceCeil, score))
}
