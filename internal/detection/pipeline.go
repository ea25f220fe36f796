package detection

import (
	"image"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/partsbench/partcounter/internal/imaging"
	"github.com/partsbench/partcounter/pkg/log"
)

const (
	// Area gates relative to the image: candidates must enclose at
	// least max(minAreaFloor, 0.05% of the image) and at most 5% of
	// the image.
	minAreaFloor    = 100.0
	minAreaFraction = 0.0005
	maxAreaFraction = 0.05

	// edgeMargin rejects candidates whose bounding box comes within
	// this many pixels of the image border; those are partial parts at
	// the tray edge.
	edgeMargin = 10

	// DefaultMinConfidence is the acceptance threshold applied when the
	// operator does not supply one.
	DefaultMinConfidence = 0.3

	thresholdFloor = 0.1
	thresholdCeil  = 0.9
)

// ClampThreshold bounds an acceptance threshold to [0.1, 0.9]. A
// threshold of 0.1 accepts everything the scorer emits (its floor is
// 0.30); 0.9 keeps only near-certain detections.
func ClampThreshold(v float64) float64 {
	return math.Max(thresholdFloor, math.Min(thresholdCeil, v))
}

// Object is one accepted detection.
type Object struct {
	// Type is the classified part class.
	Type PartType `json:"type"`

	// Confidence is the detection score in [0.30, 0.95].
	Confidence float64 `json:"confidence"`

	// Area is the contour's enclosed polygon area in square pixels.
	Area float64 `json:"area"`

	// Perimeter is the contour's closed arc length in pixels.
	Perimeter float64 `json:"perimeter"`

	// AspectRatio is bounding box width / height.
	AspectRatio float64 `json:"aspect_ratio"`

	// Extent is area / bounding box area.
	Extent float64 `json:"extent"`

	// Circularity is 4*pi*area/perimeter^2.
	Circularity float64 `json:"circularity"`

	// Bounds is the bounding box in image pixel coordinates.
	Bounds Bounds `json:"bbox"`

	// Rank is the 1-based position after sorting by confidence
	// descending; rank 1 is the strongest detection.
	Rank int `json:"rank"`
}

// Result is the outcome of one detection run.
type Result struct {
	// Count is the number of accepted objects.
	Count int `json:"count"`

	// Objects lists accepted detections sorted by confidence descending.
	Objects []Object `json:"objects"`

	// Tally maps each part type to how many were accepted, e.g.
	// {"nut": 3, "bolt": 1}. Types with zero detections are absent.
	Tally map[PartType]int `json:"tally"`

	// MinArea and MaxArea are the area gates that were applied, for
	// diagnostics.
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`
}

func emptyResult() *Result {
	return &Result{Objects: []Object{}, Tally: map[PartType]int{}}
}

// Pipeline runs the full single-image detection sequence: preprocess,
// trace contours, filter candidates, classify, score, threshold and
// tally. A Pipeline is stateless and safe for concurrent use.
type Pipeline struct {
	minConfidence float64
	logger        *logrus.Entry
}

// NewPipeline creates a pipeline with the given acceptance threshold,
// clamped to [0.1, 0.9].
func NewPipeline(minConfidence float64) *Pipeline {
	return &Pipeline{
		minConfidence: ClampThreshold(minConfidence),
		logger:        log.NewLogger(),
	}
}

// MinConfidence returns the clamped acceptance threshold in effect.
func (p *Pipeline) MinConfidence() float64 {
	return p.minConfidence
}

// Process analyzes a single image and returns the detection result.
//
// Detection failure is a first-class outcome, not a fault: a nil or
// empty image, or one whose preprocessing fails, yields the empty
// result (count 0, empty tally). Degenerate candidates inside an
// otherwise healthy image are dropped silently.
func (p *Pipeline) Process(img image.Image) *Result {
	if img == nil {
		return emptyResult()
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return emptyResult()
	}

	mask, err := imaging.Preprocess(img)
	if err != nil {
		p.logger.WithError(err).Warn("preprocess failed, returning empty result")
		return emptyResult()
	}

	imgArea := float64(width * height)
	minArea := math.Max(minAreaFloor, imgArea*minAreaFraction)
	maxArea := imgArea * maxAreaFraction

	contours := TraceContours(mask)

	candidates := make([]Object, 0, len(contours))
	for _, c := range contours {
		f, box, ok := computeFeatures(c)
		if !ok {
			continue
		}
		if f.Area < minArea || f.Area > maxArea {
			continue
		}
		if box.X < edgeMargin || box.Y < edgeMargin ||
			box.X+box.Width > width-edgeMargin || box.Y+box.Height > height-edgeMargin {
			continue
		}
		if !validShape(f) {
			continue
		}

		candidates = append(candidates, Object{
			Type:        Classify(f),
			Confidence:  confidence(f),
			Area:        f.Area,
			Perimeter:   f.Perimeter,
			AspectRatio: f.AspectRatio,
			Extent:      f.Extent,
			Circularity: f.Circularity,
			Bounds:      box,
		})
	}

	// Stable sort keeps discovery order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	accepted := make([]Object, 0, len(candidates))
	tally := make(map[PartType]int)
	for _, obj := range candidates {
		if obj.Confidence < p.minConfidence {
			continue
		}
		obj.Rank = len(accepted) + 1
		accepted = append(accepted, obj)
		tally[obj.Type]++
	}

	p.logger.Debugf("detection: %d contours, %d candidates, %d accepted (area gates %.0f..%.0f)",
		len(contours), len(candidates), len(accepted), minArea, maxArea)

	return &Result{
		Count:   len(accepted),
		Objects: accepted,
		Tally:   tally,
		MinArea: minArea,
		MaxArea: maxArea,
	}
}
