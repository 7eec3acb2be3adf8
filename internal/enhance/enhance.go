// Package enhance applies a quality-driven preprocessing strategy to an
// input image before detection.
//
// The mapping from quality level to operations is a fixed lookup table over
// the ordinal level, not runtime inspection of image content:
//
//	HIGH      -> none (pass-through)
//	MEDIUM    -> contrast normalization
//	LOW       -> denoise, contrast normalization, sharpen
//	VERY_LOW  -> strong denoise, adaptive local contrast, sharpen, binarize
//
// Each operation is a pure Image -> Image transform and is individually
// idempotent-safe: re-applying it to its own output produces no further
// visible change beyond rounding.
package enhance

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/graphextract/graphextract/internal/graph"
)

// OpID names a single enhancement operation.
type OpID string

const (
	OpDenoise           OpID = "denoise"
	OpStrongDenoise     OpID = "strong_denoise"
	OpContrastNormalize OpID = "contrast_normalize"
	OpLocalContrast     OpID = "local_contrast"
	OpSharpen           OpID = "sharpen"
	OpBinarize          OpID = "binarize"
)

// PlanFor returns the ordered operation list for a quality level.
// The returned slice must not be modified by callers.
func PlanFor(level graph.QualityLevel) []OpID {
	switch level {
	case graph.QualityHigh:
		return nil
	case graph.QualityMedium:
		return []OpID{OpContrastNormalize}
	case graph.QualityLow:
		return []OpID{OpDenoise, OpContrastNormalize, OpSharpen}
	default:
		return []OpID{OpStrongDenoise, OpLocalContrast, OpSharpen, OpBinarize}
	}
}

// Enhance applies the enhancement plan selected by the report's level.
//
// A HIGH-quality image is returned unchanged (same reference, no copy); all
// other levels produce a new image and leave the input untouched. The output
// always has the same dimensions as the input.
func Enhance(img image.Image, report graph.QualityReport) image.Image {
	return Apply(img, PlanFor(report.Level))
}

// Apply runs an explicit operation list in order. An empty plan returns the
// input image unchanged.
func Apply(img image.Image, plan []OpID) image.Image {
	out := img
	for _, op := range plan {
		out = apply(out, op)
	}
	return out
}

func apply(img image.Image, op OpID) image.Image {
	switch op {
	case OpDenoise:
		return effect.Median(img, 3)
	case OpStrongDenoise:
		return effect.Median(blur.Gaussian(img, 1.5), 5)
	case OpContrastNormalize:
		return contrastNormalize(img)
	case OpLocalContrast:
		return localContrast(img, 8, 2.0)
	case OpSharpen:
		return effect.Sharpen(img)
	case OpBinarize:
		return binarize(img)
	default:
		return img
	}
}

// contrastNormalize linearly stretches the luminance histogram to span the
// full [0, 255] range. Applied to an already-stretched image the mapping is
// the identity, so the operation is a fixed point.
func contrastNormalize(img image.Image) image.Image {
	rgba := clone.AsRGBA(img)
	lo, hi := grayRange(rgba)
	if hi <= lo || (lo == 0 && hi == 255) {
		return rgba
	}
	scale := 255.0 / float64(hi-lo)
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := rgba.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(rgba.Pix[i+c])
				v = (v - float64(lo)) * scale
				rgba.Pix[i+c] = clampByte(v)
			}
		}
	}
	return rgba
}

// binarize thresholds the image with Otsu's method. The output keeps the
// RGBA layout (pure black and white pixels) so downstream stages see the
// same channel structure regardless of the plan.
func binarize(img image.Image) image.Image {
	hist := grayHistogram(img)
	t := otsuThreshold(hist)
	// segment.Threshold keeps pixels >= level; shift by one so the Otsu
	// class boundary itself stays in the dark class. On an already-binary
	// image this makes the operation a fixed point.
	level := uint8(255)
	if t < 255 {
		level = t + 1
	}
	bin := segment.Threshold(img, level)
	return clone.AsRGBA(bin)
}

// localContrast performs tile-based adaptive histogram equalization on the
// luminance channel, with per-tile clipping to limit noise amplification.
// Pixel mappings are bilinearly interpolated between the four surrounding
// tile lookup tables to avoid tile-boundary artifacts.
func localContrast(img image.Image, tiles int, clipLimit float64) image.Image {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if tiles < 1 {
		tiles = 1
	}
	tw := (w + tiles - 1) / tiles
	th := (h + tiles - 1) / tiles

	// Per-tile clipped equalization LUTs.
	luts := make([][][256]uint8, tiles)
	for ty := 0; ty < tiles; ty++ {
		luts[ty] = make([][256]uint8, tiles)
		for tx := 0; tx < tiles; tx++ {
			luts[ty][tx] = tileLUT(rgba, b, tx*tw, ty*th, tw, th, clipLimit)
		}
	}

	out := image.NewRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			g := grayOf(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
			mapped := interpolateLUT(luts, x, y, tw, th, tiles, g)

			// Scale all channels by the luminance gain to preserve hue.
			gain := 1.0
			if g > 0 {
				gain = float64(mapped) / float64(g)
			}
			o := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 3; c++ {
				out.Pix[o+c] = clampByte(float64(rgba.Pix[i+c]) * gain)
			}
			out.Pix[o+3] = rgba.Pix[i+3]
		}
	}
	return out
}

// tileLUT builds the clipped-equalization lookup table for one tile.
func tileLUT(rgba *image.RGBA, b image.Rectangle, x0, y0, tw, th int, clipLimit float64) [256]uint8 {
	var hist [256]int
	count := 0
	for y := y0; y < y0+th && y < b.Dy(); y++ {
		for x := x0; x < x0+tw && x < b.Dx(); x++ {
			i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			hist[grayOf(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])]++
			count++
		}
	}
	var lut [256]uint8
	if count == 0 {
		for v := range lut {
			lut[v] = uint8(v)
		}
		return lut
	}

	// Clip histogram peaks and redistribute the excess uniformly.
	clip := int(clipLimit * float64(count) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for v := range hist {
		if hist[v] > clip {
			excess += hist[v] - clip
			hist[v] = clip
		}
	}
	bonus := excess / 256
	for v := range hist {
		hist[v] += bonus
	}

	cum := 0
	for v := range hist {
		cum += hist[v]
		lut[v] = clampByte(float64(cum) * 255 / float64(count))
	}
	return lut
}

// interpolateLUT maps gray value g at pixel (x, y) through the bilinear
// blend of the four nearest tile LUTs.
func interpolateLUT(luts [][][256]uint8, x, y, tw, th, tiles int, g uint8) uint8 {
	fx := (float64(x) - float64(tw)/2) / float64(tw)
	fy := (float64(y) - float64(th)/2) / float64(th)
	tx0 := int(fx)
	ty0 := int(fy)
	if fx < 0 {
		tx0 = 0
		fx = 0
	}
	if fy < 0 {
		ty0 = 0
		fy = 0
	}
	tx1 := tx0 + 1
	ty1 := ty0 + 1
	if tx1 >= tiles {
		tx1 = tiles - 1
	}
	if ty1 >= tiles {
		ty1 = tiles - 1
	}
	if tx0 >= tiles {
		tx0 = tiles - 1
	}
	if ty0 >= tiles {
		ty0 = tiles - 1
	}
	wx := fx - float64(tx0)
	wy := fy - float64(ty0)
	if wx < 0 {
		wx = 0
	}
	if wy < 0 {
		wy = 0
	}
	if wx > 1 {
		wx = 1
	}
	if wy > 1 {
		wy = 1
	}

	v00 := float64(luts[ty0][tx0][g])
	v10 := float64(luts[ty0][tx1][g])
	v01 := float64(luts[ty1][tx0][g])
	v11 := float64(luts[ty1][tx1][g])
	top := v00*(1-wx) + v10*wx
	bot := v01*(1-wx) + v11*wx
	return clampByte(top*(1-wy) + bot*wy)
}

// grayRange returns the min and max luminance present in the image.
func grayRange(rgba *image.RGBA) (lo, hi uint8) {
	lo, hi = 255, 0
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := rgba.PixOffset(x, y)
			g := grayOf(rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
			if g < lo {
				lo = g
			}
			if g > hi {
				hi = g
			}
		}
	}
	return lo, hi
}

func grayHistogram(img image.Image) [256]int {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			hist[grayOf(uint8(r>>8), uint8(g>>8), uint8(bl>>8))]++
		}
	}
	return hist
}

// otsuThreshold finds the threshold that maximizes between-class variance.
func otsuThreshold(hist [256]int) uint8 {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for v, c := range hist {
		sum += float64(v) * float64(c)
	}

	var sumB, wB float64
	var best float64
	threshold := 128
	for v := 0; v < 256; v++ {
		wB += float64(hist[v])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(v) * float64(hist[v])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = v
		}
	}
	return uint8(threshold)
}

// grayOf converts RGB to grayscale using ITU-R BT.601 luminance weights.
// Rounds rather than truncates, so a pure white pixel maps to 255 exactly
// and the contrast-stretch fixed point holds.
func grayOf(r, g, b uint8) uint8 {
	return clampByte(float64(r)*0.299 + float64(g)*0.587 + float64(b)*0.114)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
