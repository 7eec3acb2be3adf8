package geometry

import "math"

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width returns the horizontal extent in pixels.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent in pixels.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns the area in square pixels.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// Center returns the center point of the box.
func (b Bounds) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X1 && p.X < b.X2 && p.Y >= b.Y1 && p.Y < b.Y2
}

// Dilate grows the box by margin pixels on every side, clamped to [0, maxW) x [0, maxH).
func (b Bounds) Dilate(margin, maxW, maxH int) Bounds {
	return Bounds{
		X1: maxInt(0, b.X1-margin),
		Y1: maxInt(0, b.Y1-margin),
		X2: minInt(maxW, b.X2+margin),
		Y2: minInt(maxH, b.Y2+margin),
	}
}

// Intersect returns the overlapping region of two boxes.
// The result has zero or negative extent when the boxes do not overlap.
func (b Bounds) Intersect(o Bounds) Bounds {
	return Bounds{
		X1: maxInt(b.X1, o.X1),
		Y1: maxInt(b.Y1, o.Y1),
		X2: minInt(b.X2, o.X2),
		Y2: minInt(b.Y2, o.Y2),
	}
}

// Overlap returns the intersection area of two boxes in square pixels.
func (b Bounds) Overlap(o Bounds) int {
	i := b.Intersect(o)
	if i.Width() <= 0 || i.Height() <= 0 {
		return 0
	}
	return i.Area()
}

// IoU returns the intersection-over-union of two boxes (0.0 to 1.0).
//
// IoU is the standard overlap measure for duplicate suppression: 0 means the
// boxes are disjoint, 1 means they are identical.
func (b Bounds) IoU(o Bounds) float64 {
	inter := b.Overlap(o)
	if inter == 0 {
		return 0
	}
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// DistToPoint returns the distance from p to the box boundary.
// Returns 0 when p is inside the box.
func (b Bounds) DistToPoint(p Point) float64 {
	dx := maxInt(maxInt(b.X1-p.X, 0), p.X-b.X2)
	dy := maxInt(maxInt(b.Y1-p.Y, 0), p.Y-b.Y2)
	return math.Sqrt(float64(dx*dx + dy*dy))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
