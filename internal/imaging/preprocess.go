package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
)

const (
	// blurRadius of 2.0 yields a 5x5 Gaussian kernel (ceil(2r+1) = 5).
	blurRadius = 2.0

	// threshDelta is subtracted from the local mean before comparison;
	// a pixel must be at least this much darker than its neighborhood
	// to count as foreground.
	threshDelta = 2.0

	// minBlockSize is the smallest adaptive threshold window.
	minBlockSize = 11

	closeIterations = 2
	openIterations  = 1
)

// Grayscale converts an image to 8-bit luminance using ITU-R BT.601
// weights (0.299*R + 0.587*G + 0.114*B).
//
// The result is normalized to bounds (0,0)-(w,h) so downstream grids
// can index it without offset arithmetic.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray.Pix[y*gray.Stride+x] = uint8(lum + 0.5)
		}
	}
	return gray
}

// Preprocess reduces an image to the binary foreground mask that
// contour extraction runs on. Parts are assumed darker than the tray
// surface; the mask marks locally-dark pixels as foreground.
//
// # Algorithm
//
//  1. Grayscale conversion: RGB -> luminance using ITU-R BT.601 weights
//     (0.299*R + 0.587*G + 0.114*B)
//
//  2. Gaussian blur: 5x5 kernel to suppress sensor noise before
//     thresholding
//
//  3. Adaptive mean threshold with inverted polarity: each pixel is
//     compared against the mean of its surrounding block (window size
//     max(11, min(w,h)/20), forced odd). Pixels darker than the local
//     mean by more than a small delta become foreground. Uneven tray
//     lighting cancels out because every pixel is judged against its
//     own neighborhood.
//
//  4. Morphological cleanup with a 3x3 cross structuring element:
//     close with 2 iterations to fill gaps inside parts, then open
//     with 1 iteration to drop isolated noise specks.
//
// Returns an error for a nil or empty image; every other input yields
// a mask (possibly all background).
func Preprocess(img image.Image) (*Mask, error) {
	if img == nil {
		return nil, fmt.Errorf("preprocess: nil image")
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("preprocess: empty image %dx%d", width, height)
	}

	gray := Grayscale(img)
	blurred := blur.Gaussian(gray, blurRadius)

	// The blurred image is RGBA with equal channels; lift the red
	// channel into a float grid for the threshold pass.
	lum := make([][]float64, height)
	for y := 0; y < height; y++ {
		lum[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			lum[y][x] = float64(blurred.Pix[y*blurred.Stride+x*4])
		}
	}

	mask := adaptiveThreshold(lum, width, height)
	mask.Close(closeIterations)
	mask.Open(openIterations)
	return mask, nil
}

// adaptiveThreshold marks pixels darker than their local neighborhood
// mean minus threshDelta as foreground.
//
// The window is blockSize x blockSize centered on each pixel, clamped
// to the image; an integral image keeps the mean O(1) per pixel.
func adaptiveThreshold(lum [][]float64, width, height int) *Mask {
	block := blockSize(width, height)
	radius := block / 2

	// integral[y][x] = sum of lum over the rectangle [0,x) x [0,y)
	integral := make([][]float64, height+1)
	integral[0] = make([]float64, width+1)
	for y := 0; y < height; y++ {
		integral[y+1] = make([]float64, width+1)
		rowSum := 0.0
		for x := 0; x < width; x++ {
			rowSum += lum[y][x]
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	mask := NewMask(width, height)
	for y := 0; y < height; y++ {
		y0 := clamp(y-radius, 0, height-1)
		y1 := clamp(y+radius, 0, height-1)
		for x := 0; x < width; x++ {
			x0 := clamp(x-radius, 0, width-1)
			x1 := clamp(x+radius, 0, width-1)

			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			count := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			mean := sum / count

			if lum[y][x] < mean-threshDelta {
				mask.bits[y][x] = true
			}
		}
	}
	return mask
}

// blockSize derives the adaptive threshold window from the image
// dimensions: one twentieth of the shorter side, at least 11, odd.
func blockSize(width, height int) int {
	short := width
	if height < short {
		short = height
	}
	block := short / 20
	if block < minBlockSize {
		block = minBlockSize
	}
	if block%2 == 0 {
		block++
	}
	return block
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in windowed operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
