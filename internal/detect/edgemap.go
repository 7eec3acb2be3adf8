// Package detect extracts node shapes and connecting edges from an enhanced
// diagram image. Detection never fails on "nothing found": empty node or
// edge lists are valid results.
package detect

import (
	"fmt"
	"image"
	"math"
)

// gradientThreshold is the grayscale delta above which a pixel is considered
// part of an edge. Enhanced diagram images have near-binary strokes, so a
// moderate threshold is robust across quality levels.
const gradientThreshold = 30.0

// edgeMask performs gradient-based edge detection, returning a 2D boolean
// mask where true marks an edge pixel. Border pixels are never edges.
func edgeMask(img image.Image) [][]bool {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mask := make([][]bool, height)
	for y := 0; y < height; y++ {
		mask[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}
			c := grayAt(img, x+bounds.Min.X, y+bounds.Min.Y)
			cx := grayAt(img, x+1+bounds.Min.X, y+bounds.Min.Y)
			cy := grayAt(img, x+bounds.Min.X, y+1+bounds.Min.Y)

			dx := math.Abs(float64(c) - float64(cx))
			dy := math.Abs(float64(c) - float64(cy))
			if dx > gradientThreshold || dy > gradientThreshold {
				mask[y][x] = true
			}
		}
	}
	return mask
}

// grayAt converts a pixel to grayscale using ITU-R BT.601 luminance weights.
func grayAt(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114)
}

// sampleColorHex returns the hex color (#RRGGBB) of a pixel, or an empty
// string when the coordinate is out of bounds.
func sampleColorHex(img image.Image, x, y int) string {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return ""
	}
	r, g, bl, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02X%02X%02X", uint8(r>>8), uint8(g>>8), uint8(bl>>8))
}
