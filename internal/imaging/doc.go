// Package imaging turns raw part-tray photographs into binary
// foreground masks ready for contour extraction.
//
// The package covers image IO (decoding uploads with EXIF
// auto-orientation, atomic JPEG output) and the preprocessing chain:
// BT.601 grayscale conversion, 5x5 Gaussian blur, adaptive mean
// thresholding with inverted polarity, and binary morphology over the
// resulting Mask. Parts are assumed darker than the tray surface, so
// foreground means locally dark.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Masks are always
// normalized to origin (0,0) regardless of the source image's bounds
// offset.
//
// # Thread Safety
//
// All operations are stateless and safe to run concurrently on
// different images. A Mask is a plain value and must not be mutated
// from multiple goroutines.
//
// # Error Handling
//
// Decode failures are reported as *LoadError so callers can
// distinguish a bad upload from an internal fault. Preprocessing only
// fails on nil or zero-sized input; every decodable image produces a
// mask, possibly all background.
package imaging
