// Package detection counts and classifies mechanical parts in a single
// tray image.
//
// The package implements the full detection sequence over a binary
// foreground mask: contour tracing, candidate filtering, geometric
// classification into nuts, bolts, screws and washers, confidence
// scoring, and annotated result rendering.
//
// # Pipeline
//
// Pipeline.Process runs the stages in order:
//
//  1. Preprocess: reduce the image to a foreground mask (see the
//     imaging package)
//  2. Contour tracing: one external boundary per connected blob
//  3. Filtering: area gates relative to the image size, a border
//     margin that rejects partial parts at the tray edge, and a shape
//     plausibility gate
//  4. Classification: an ordered rule chain over aspect ratio and
//     circularity; the first matching rule wins
//  5. Scoring: confidence in [0.30, 0.95] from area, circularity and
//     extent, sorted descending with stable order for ties
//  6. Thresholding and tally: objects below the operator's minimum
//     confidence are discarded; survivors are ranked and counted per
//     class
//
// # Coordinate System
//
// All coordinates use the standard image convention: origin (0, 0) at
// the top-left corner, X increasing rightward, Y increasing downward.
// Bounding boxes carry the top-left corner plus pixel-count width and
// height.
//
// # Failure Semantics
//
// An unreadable, nil or empty image produces the empty result rather
// than an error; absence of detections is a first-class outcome.
// Individual candidates with degenerate geometry (zero perimeter,
// non-finite features) are dropped silently.
//
// # Limitations
//
// Classification is purely geometric. Overlapping or touching parts
// merge into one blob and classify as whatever the merged outline
// resembles; the vibration workflow in the session package exists
// precisely to catch that through count instability across images.
package detection
