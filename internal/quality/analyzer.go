// Package quality scores an input image's usable quality for diagram
// detection. The three scores (contrast, noise, sharpness) are independent;
// a fixed threshold table combines them into a four-level ordinal that
// drives enhancement plan selection.
package quality

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/graphextract/graphextract/internal/graph"
)

// Thresholds used when combining scores into a level. One point is awarded
// per passing check; 3+ points is HIGH, 2 MEDIUM, 1 LOW, 0 VERY_LOW.
const (
	brightnessMin = 80.0
	brightnessMax = 220.0
	contrastMin   = 40.0
	noiseMax      = 10.0
	sharpnessMin  = 0.015

	// gradientStrong is the Sobel magnitude (0-255) above which a pixel
	// counts toward the sharpness score.
	gradientStrong = 128
)

// Analyzer computes a QualityReport for an image.
// It has no state and is safe for concurrent use.
type Analyzer struct{}

// New creates a quality analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze validates the image and computes its quality report.
//
// The computation is deterministic given identical pixels and has no side
// effects. Returns graph.ErrInvalidImage for a nil image, zero dimensions
// or an unsupported channel layout.
func (a *Analyzer) Analyze(img image.Image) (graph.QualityReport, error) {
	if err := Validate(img); err != nil {
		return graph.QualityReport{}, err
	}

	lum := luminances(img)
	brightness, contrast := meanStddev(lum)
	noise := noiseScore(img, lum)
	sharpness := sharpnessScore(img)

	score := 0
	if brightness >= brightnessMin && brightness <= brightnessMax {
		score++
	}
	if contrast > contrastMin {
		score++
	}
	if noise < noiseMax {
		score++
	}
	if sharpness > sharpnessMin {
		score++
	}

	level := graph.QualityVeryLow
	switch {
	case score >= 3:
		level = graph.QualityHigh
	case score == 2:
		level = graph.QualityMedium
	case score == 1:
		level = graph.QualityLow
	}

	return graph.QualityReport{
		Level:      level,
		Brightness: brightness,
		Contrast:   contrast,
		Noise:      noise,
		Sharpness:  sharpness,
	}, nil
}

// Validate checks that an image is usable as pipeline input.
func Validate(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", graph.ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: zero dimension (%dx%d)", graph.ErrInvalidImage, b.Dx(), b.Dy())
	}
	if ch := channelCount(img); ch != 1 && ch != 3 && ch != 4 {
		return fmt.Errorf("%w: unsupported channel count %d", graph.ErrInvalidImage, ch)
	}
	return nil
}

// channelCount maps the concrete image type to its channel layout.
// Unknown color models are treated as 3-channel; alpha-only images are the
// one layout the pipeline cannot score.
func channelCount(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.Alpha, *image.Alpha16:
		return 2
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return 4
	case *image.CMYK:
		return 4
	default:
		return 3
	}
}

// luminances returns the per-pixel luminance (0-255) in row-major order.
// Luminance is taken from the CIE xyY representation of each pixel.
func luminances(img image.Image) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixel; counts as black.
				out = append(out, 0)
				continue
			}
			_, _, yy := c.Xyy()
			out = append(out, yy*255)
		}
	}
	return out
}

func meanStddev(vals []float64) (mean, stddev float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		d := v - mean
		stddev += d * d
	}
	stddev = math.Sqrt(stddev / float64(len(vals)))
	return mean, stddev
}

// noiseScore estimates noise as the mean absolute difference between the
// image and a median-filtered copy, normalized per pixel. Smooth images
// score near zero; salt-and-pepper noise pushes the score up sharply.
func noiseScore(img image.Image, lum []float64) float64 {
	filtered := effect.Median(img, 3)
	b := filtered.Bounds()
	var sum float64
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(filtered.At(x, y))
			var fy float64
			if ok {
				_, _, fy = c.Xyy()
			}
			sum += math.Abs(lum[i] - fy*255)
			i++
		}
	}
	return sum / float64(len(lum))
}

// sharpnessScore returns the density of strong-gradient pixels using a
// Sobel filter. Blurred images have few strong gradients.
func sharpnessScore(img image.Image) float64 {
	sobel := effect.Sobel(img)
	b := sobel.Bounds()
	strong := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := sobel.At(x, y).RGBA()
			mag := (float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(bl>>8)*0.114)
			if mag >= gradientStrong {
				strong++
			}
		}
	}
	return float64(strong) / float64(b.Dx()*b.Dy())
}
