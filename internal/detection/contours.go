package detection

import (
	"math"

	"github.com/partsbench/partcounter/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X, Y) is the top-left corner; Width and Height are pixel counts, so
// the box covers columns X..X+Width-1 and rows Y..Y+Height-1.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contour is the ordered outer boundary of one connected foreground
// blob, traced clockwise from its topmost-leftmost pixel.
type Contour struct {
	Points []Point
}

// TraceContours finds the external boundary of every 8-connected
// foreground blob in the mask: one contour per blob, holes ignored.
//
// # Algorithm
//
//  1. Scan the mask row-major. Each unvisited foreground pixel is the
//     topmost-leftmost pixel of a new blob.
//  2. Flood-fill the blob (stack-based, 8-connected) to mark all its
//     pixels visited, so the scan does not rediscover it.
//  3. Trace the blob's outer boundary with Moore-neighbor tracing:
//     walk clockwise around the blob, at each boundary pixel scanning
//     the 8-neighborhood clockwise from the last background cell.
//     Tracing terminates when the walk re-enters the start pixel from
//     its original backtrack cell.
//
// Interior holes never influence the trace: the walk follows the outer
// rim only, and the enclosed area (shoelace over the rim) counts holed
// regions as solid. A single-pixel blob yields a one-point contour
// with zero area and zero perimeter, which downstream filtering
// discards as degenerate.
func TraceContours(m *imaging.Mask) []Contour {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return nil
	}

	visited := make([][]bool, m.Height)
	for y := 0; y < m.Height; y++ {
		visited[y] = make([]bool, m.Width)
	}

	contours := make([]Contour, 0)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) && !visited[y][x] {
				markBlob(m, visited, x, y)
				contours = append(contours, Contour{Points: traceBoundary(m, Point{X: x, Y: y})})
			}
		}
	}
	return contours
}

// markBlob performs iterative flood-fill from a starting point, marking
// every pixel of the 8-connected blob as visited.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large blobs.
func markBlob(m *imaging.Mask, visited [][]bool, startX, startY int) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
			continue
		}
		if visited[p.Y][p.X] || !m.At(p.X, p.Y) {
			continue
		}

		visited[p.Y][p.X] = true

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// mooreOffsets lists the 8-neighborhood in clockwise order starting
// from west: W, NW, N, NE, E, SE, S, SW.
var mooreOffsets = [8][2]int{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// traceBoundary walks the outer boundary of the blob containing start,
// which must be its topmost-leftmost pixel (guaranteed by the row-major
// scan; the cell west of start is background).
//
// Termination is the classic criterion: stop when the walk re-enters
// the start pixel from its original backtrack cell. A repeated-state
// check and a step cap guard against thin-spur geometries that revisit
// the start pixel from other directions.
func traceBoundary(m *imaging.Mask, start Point) []Point {
	boundary := []Point{start}

	cur := start
	back := Point{X: start.X - 1, Y: start.Y}
	firstBack := back

	seenAtStart := map[Point]bool{firstBack: true}
	maxSteps := 8 * m.Width * m.Height

	for step := 0; step < maxSteps; step++ {
		startDir := dirIndex(cur, back)
		found := false
		prev := back
		for i := 1; i <= 8; i++ {
			dir := (startDir + i) % 8
			q := Point{X: cur.X + mooreOffsets[dir][0], Y: cur.Y + mooreOffsets[dir][1]}
			if m.At(q.X, q.Y) {
				back = prev
				cur = q
				found = true
				break
			}
			prev = q
		}
		if !found {
			// isolated single pixel
			break
		}
		if cur == start {
			if back == firstBack || seenAtStart[back] {
				break
			}
			seenAtStart[back] = true
		}
		boundary = append(boundary, cur)
	}
	return boundary
}

// dirIndex returns the mooreOffsets index of the step from a to the
// adjacent cell b.
func dirIndex(a, b Point) int {
	dx := b.X - a.X
	dy := b.Y - a.Y
	for i, off := range mooreOffsets {
		if off[0] == dx && off[1] == dy {
			return i
		}
	}
	return 0
}

// Area returns the polygon area enclosed by the contour, computed with
// the shoelace formula over the boundary points. The boundary runs
// through pixel centers, so a solid w x h rectangle measures
// (w-1)*(h-1); interior holes are counted as solid.
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p := c.Points[i]
		q := c.Points[(i+1)%n]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the closed arc length of the contour: the sum of
// distances between consecutive boundary points including the closing
// segment. Steps between 8-adjacent pixels measure 1 or sqrt(2).
func (c Contour) Perimeter() float64 {
	n := len(c.Points)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		p := c.Points[i]
		q := c.Points[(i+1)%n]
		dx := float64(q.X - p.X)
		dy := float64(q.Y - p.Y)
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	return sum
}

// BoundingBox returns the axis-aligned pixel bounds of the contour.
// Width and Height are pixel counts (max - min + 1).
func (c Contour) BoundingBox() Bounds {
	if len(c.Points) == 0 {
		return Bounds{}
	}
	minX, minY := c.Points[0].X, c.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range c.Points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}
