package cache

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashTestImage(width, height int, draw func(img *image.RGBA)) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	if draw != nil {
		draw(img)
	}
	return img
}

func TestKeyDeterministic(t *testing.T) {
	img := hashTestImage(100, 100, func(img *image.RGBA) {
		for x := 20; x < 80; x++ {
			for y := 40; y < 60; y++ {
				img.Set(x, y, color.Black)
			}
		}
	})

	k1, err := Key(img)
	require.NoError(t, err)
	k2, err := Key(img)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestKeyFormat(t *testing.T) {
	k, err := Key(hashTestImage(64, 64, nil))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(k, "p"), "key %q should start with the phash part", k)
	assert.Contains(t, k, "-d", "key %q should contain the dhash part", k)
}

func TestKeyDistinguishesContent(t *testing.T) {
	blank, err := Key(hashTestImage(100, 100, nil))
	require.NoError(t, err)

	boxed, err := Key(hashTestImage(100, 100, func(img *image.RGBA) {
		for x := 10; x < 90; x++ {
			for y := 10; y < 50; y++ {
				img.Set(x, y, color.Black)
			}
		}
	}))
	require.NoError(t, err)

	assert.NotEqual(t, blank, boxed)
}

func TestKeyResolutionIndependent(t *testing.T) {
	drawBox := func(img *image.RGBA) {
		b := img.Bounds()
		for x := b.Dx() / 4; x < 3*b.Dx()/4; x++ {
			for y := b.Dy() / 4; y < 3*b.Dy()/4; y++ {
				img.Set(x, y, color.Black)
			}
		}
	}

	small, err := Key(hashTestImage(128, 128, drawBox))
	require.NoError(t, err)
	large, err := Key(hashTestImage(512, 512, drawBox))
	require.NoError(t, err)

	assert.Equal(t, small, large, "the same content at different resolutions should hash identically")
}
