package imaging

// Mask is a binary foreground map produced by thresholding. True cells
// are foreground (part material), false cells are background (tray).
//
// The zero-based coordinate space runs (0,0) top-left to
// (Width-1, Height-1) bottom-right regardless of the source image's
// bounds offset.
type Mask struct {
	Width  int
	Height int
	bits   [][]bool
}

// NewMask creates an all-background mask of the given size.
func NewMask(width, height int) *Mask {
	bits := make([][]bool, height)
	for y := 0; y < height; y++ {
		bits[y] = make([]bool, width)
	}
	return &Mask{Width: width, Height: height, bits: bits}
}

// At reports whether (x, y) is foreground. Out-of-bounds coordinates
// are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.bits[y][x]
}

// Set marks (x, y) as foreground (true) or background (false).
// Out-of-bounds coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.bits[y][x] = v
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		copy(c.bits[y], m.bits[y])
	}
	return c
}

// ForegroundCount returns the number of foreground cells.
func (m *Mask) ForegroundCount() int {
	n := 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.bits[y][x] {
				n++
			}
		}
	}
	return n
}

// crossOffsets is the 3x3 cross (plus-shaped) structuring element: the
// center cell and its four edge neighbors. It matches a 3x3 elliptical
// kernel, which degenerates to a cross at that size.
var crossOffsets = [5][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Dilate grows foreground regions by the cross structuring element,
// applied iterations times. Cells outside the mask are treated as
// background, so dilation never bleeds in from the border.
func (m *Mask) Dilate(iterations int) {
	for i := 0; i < iterations; i++ {
		src := m.Clone()
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				v := false
				for _, d := range crossOffsets {
					if src.At(x+d[0], y+d[1]) {
						v = true
						break
					}
				}
				m.bits[y][x] = v
			}
		}
	}
}

// Erode shrinks foreground regions by the cross structuring element,
// applied iterations times. Cells outside the mask are treated as
// foreground, so blobs touching the border keep their border cells.
func (m *Mask) Erode(iterations int) {
	for i := 0; i < iterations; i++ {
		src := m.Clone()
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				v := true
				for _, d := range crossOffsets {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
						continue
					}
					if !src.bits[ny][nx] {
						v = false
						break
					}
				}
				m.bits[y][x] = v
			}
		}
	}
}

// Close fills small gaps and joins nearby fragments: dilate iterations
// times, then erode the same number of times.
func (m *Mask) Close(iterations int) {
	m.Dilate(iterations)
	m.Erode(iterations)
}

// Open removes isolated specks and thin spurs: erode iterations times,
// then dilate the same number of times.
func (m *Mask) Open(iterations int) {
	m.Erode(iterations)
	m.Dilate(iterations)
}
