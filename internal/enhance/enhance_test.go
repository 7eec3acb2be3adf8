package enhance

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/graphextract/graphextract/internal/graph"
)

func createGradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Mid-range ramp so there is contrast headroom to stretch.
			v := uint8(64 + (x*128)/width)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestPlanFor(t *testing.T) {
	cases := []struct {
		level graph.QualityLevel
		want  []OpID
	}{
		{graph.QualityHigh, nil},
		{graph.QualityMedium, []OpID{OpContrastNormalize}},
		{graph.QualityLow, []OpID{OpDenoise, OpContrastNormalize, OpSharpen}},
		{graph.QualityVeryLow, []OpID{OpStrongDenoise, OpLocalContrast, OpSharpen, OpBinarize}},
	}
	for _, tc := range cases {
		got := PlanFor(tc.level)
		if len(got) != len(tc.want) {
			t.Errorf("PlanFor(%v) has %d ops, want %d", tc.level, len(got), len(tc.want))
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("PlanFor(%v)[%d] = %v, want %v", tc.level, i, got[i], tc.want[i])
			}
		}
	}
}

func TestEnhanceHighQualityPassThrough(t *testing.T) {
	img := createGradientImage(32, 32)
	out := Enhance(img, graph.QualityReport{Level: graph.QualityHigh})
	if out != image.Image(img) {
		t.Error("HIGH quality should return the input image unchanged")
	}
}

func TestContrastNormalizeStretchesRange(t *testing.T) {
	img := createGradientImage(64, 16)
	out := Apply(img, []OpID{OpContrastNormalize})

	lo, hi := grayExtents(out)
	if lo > 5 {
		t.Errorf("min gray after normalization = %d, want near 0", lo)
	}
	if hi < 250 {
		t.Errorf("max gray after normalization = %d, want near 255", hi)
	}
}

func TestContrastNormalizeFixedPoint(t *testing.T) {
	img := createGradientImage(64, 16)
	once := Apply(img, []OpID{OpContrastNormalize}).(*image.RGBA)
	twice := Apply(once, []OpID{OpContrastNormalize}).(*image.RGBA)

	if !bytes.Equal(once.Pix, twice.Pix) {
		t.Error("normalizing an already-normalized image changed pixels")
	}
}

func TestBinarizeProducesTwoLevels(t *testing.T) {
	img := createGradientImage(64, 16)
	out := Apply(img, []OpID{OpBinarize})

	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := out.At(x, y).RGBA()
			for _, v := range []uint32{r >> 8, g >> 8, bl >> 8} {
				if v != 0 && v != 255 {
					t.Fatalf("pixel (%d,%d) has level %d, want 0 or 255", x, y, v)
				}
			}
		}
	}
}

func TestBinarizeFixedPoint(t *testing.T) {
	img := createGradientImage(64, 16)
	once := Apply(img, []OpID{OpBinarize}).(*image.RGBA)
	twice := Apply(once, []OpID{OpBinarize}).(*image.RGBA)

	if !bytes.Equal(once.Pix, twice.Pix) {
		t.Error("binarizing an already-binary image changed pixels")
	}
}

func TestApplyPreservesDimensions(t *testing.T) {
	img := createGradientImage(48, 36)
	for _, level := range []graph.QualityLevel{
		graph.QualityMedium, graph.QualityLow, graph.QualityVeryLow,
	} {
		out := Enhance(img, graph.QualityReport{Level: level})
		if out.Bounds().Dx() != 48 || out.Bounds().Dy() != 36 {
			t.Errorf("level %v changed dimensions to %v", level, out.Bounds())
		}
	}
}

func TestApplyEmptyPlan(t *testing.T) {
	img := createGradientImage(8, 8)
	if out := Apply(img, nil); out != image.Image(img) {
		t.Error("empty plan should return the input image unchanged")
	}
}

func grayExtents(img image.Image) (lo, hi uint8) {
	lo, hi = 255, 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			v := grayOf(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
