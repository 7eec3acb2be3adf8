// Package cache provides the content-addressed result cache: a perceptual
// hash provider, durable key->blob backing stores, and a ContentCache that
// memoizes DetectionResults and de-duplicates concurrent identical requests.
package cache

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// hashScale is the edge length images are resized to before hashing, so
// the key is independent of the input resolution.
const hashScale = 256

// Key computes the perceptual cache key for an original, unenhanced image.
//
// The key combines a 64-bit perception hash (DCT-based) and a 64-bit
// difference hash over a Lanczos-resampled copy. Two byte-different but
// visually identical images (e.g. a re-encoded PNG) produce the same key,
// while any visible content change produces a different one.
func Key(img image.Image) (string, error) {
	scaled := imaging.Resize(img, hashScale, hashScale, imaging.Lanczos)

	phash, err := goimagehash.PerceptionHash(scaled)
	if err != nil {
		return "", fmt.Errorf("computing perception hash: %w", err)
	}
	dhash, err := goimagehash.DifferenceHash(scaled)
	if err != nil {
		return "", fmt.Errorf("computing difference hash: %w", err)
	}
	return fmt.Sprintf("p%016x-d%016x", phash.GetHash(), dhash.GetHash()), nil
}
