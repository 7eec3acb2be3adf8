package detect

import (
	"github.com/graphextract/graphextract/internal/geometry"
)

// minContourPoints filters out specks of noise before shape analysis.
const minContourPoints = 10

// contour is a connected component of edge pixels with its bounding box.
// Scan order (top-left first) defines detection order downstream.
type contour struct {
	points []geometry.Point
	box    geometry.Bounds
}

// findContours groups connected edge pixels into contours using
// 8-connected flood fill. Contours smaller than minContourPoints are
// discarded as noise. Scan order (top-left first) defines contour indices.
func findContours(mask [][]bool, width, height int) []contour {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	var contours []contour
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			c := traceComponent(mask, visited, x, y, width, height)
			if len(c.points) >= minContourPoints {
				contours = append(contours, c)
			}
		}
	}
	return contours
}

// traceComponent collects one connected component with an iterative
// stack-based flood fill, tracking the bounding box as it goes.
func traceComponent(mask, visited [][]bool, startX, startY, width, height int) contour {
	c := contour{box: geometry.Bounds{X1: startX, Y1: startY, X2: startX, Y2: startY}}
	stack := []geometry.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		c.points = append(c.points, p)

		if p.X < c.box.X1 {
			c.box.X1 = p.X
		}
		if p.X > c.box.X2 {
			c.box.X2 = p.X
		}
		if p.Y < c.box.Y1 {
			c.box.Y1 = p.Y
		}
		if p.Y > c.box.Y2 {
			c.box.Y2 = p.Y
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, geometry.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return c
}

// region is a connected set of pixels that contour strokes seal off from
// the surrounding background, grown by the boundary pixels doing the
// sealing. Points are in image coordinates.
type region struct {
	points []geometry.Point
	box    geometry.Bounds
	area   int
}

func (r *region) add(p geometry.Point) {
	r.points = append(r.points, p)
	if p.X < r.box.X1 {
		r.box.X1 = p.X
	}
	if p.X > r.box.X2 {
		r.box.X2 = p.X
	}
	if p.Y < r.box.Y1 {
		r.box.Y1 = p.Y
	}
	if p.Y > r.box.Y2 {
		r.box.Y2 = p.Y
	}
}

// flood states for enclosedRegions.
const (
	regUnknown byte = iota
	regOutside
	regClaimed
)

// enclosedRegions returns the pixel regions a contour seals off from the
// surrounding background, in scan order. The contour's bounding window is
// flooded from its border across non-edge pixels; whatever the flood cannot
// reach is enclosed. Filled and outlined glyphs both enclose their interior,
// while an open stroke encloses nothing, so shapes joined by a connector
// stroke still come out as separate regions instead of one fused component.
func enclosedRegions(mask [][]bool, box geometry.Bounds, width, height int) []region {
	win := box.Dilate(1, width, height)
	ww := win.Width() + 1
	wh := win.Height() + 1
	if ww <= 0 || wh <= 0 {
		return nil
	}

	state := make([]byte, ww*wh)
	var stack []geometry.Point

	push := func(x, y int) {
		stack = append(stack, geometry.Point{X: x, Y: y})
	}
	for x := 0; x < ww; x++ {
		push(x, 0)
		push(x, wh-1)
	}
	for y := 0; y < wh; y++ {
		push(0, y)
		push(ww-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X < 0 || p.X >= ww || p.Y < 0 || p.Y >= wh {
			continue
		}
		if state[p.Y*ww+p.X] != regUnknown {
			continue
		}
		if mask[win.Y1+p.Y][win.X1+p.X] {
			continue // edge pixels block the flood
		}
		state[p.Y*ww+p.X] = regOutside
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}

	var regions []region
	for y := 0; y < wh; y++ {
		for x := 0; x < ww; x++ {
			if state[y*ww+x] != regUnknown || mask[win.Y1+y][win.X1+x] {
				continue
			}
			regions = append(regions, claimRegion(mask, state, win, ww, wh, x, y))
		}
	}
	return regions
}

// claimRegion floods one enclosed region starting at window coordinates
// (startX, startY), marking its pixels claimed and folding in the mask
// pixels that seal it.
func claimRegion(mask [][]bool, state []byte, win geometry.Bounds, ww, wh, startX, startY int) region {
	start := geometry.Point{X: win.X1 + startX, Y: win.Y1 + startY}
	r := region{box: geometry.Bounds{X1: start.X, Y1: start.Y, X2: start.X, Y2: start.Y}}
	boundary := make(map[geometry.Point]bool)

	stack := []geometry.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X < 0 || p.X >= ww || p.Y < 0 || p.Y >= wh {
			continue
		}
		ix, iy := win.X1+p.X, win.Y1+p.Y
		if mask[iy][ix] {
			boundary[geometry.Point{X: ix, Y: iy}] = true
			continue
		}
		if state[p.Y*ww+p.X] != regUnknown {
			continue
		}
		state[p.Y*ww+p.X] = regClaimed
		r.add(geometry.Point{X: ix, Y: iy})
		stack = append(stack,
			geometry.Point{X: p.X + 1, Y: p.Y},
			geometry.Point{X: p.X - 1, Y: p.Y},
			geometry.Point{X: p.X, Y: p.Y + 1},
			geometry.Point{X: p.X, Y: p.Y - 1},
		)
	}

	for p := range boundary {
		r.add(p)
	}
	r.area = len(r.points)
	return r
}
