package pipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/graphextract/graphextract/internal/graph"
)

// LoadImage opens and decodes an image file. Decoding failures surface as
// graph.ErrInvalidImage since they abort the pipeline before any stage.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", graph.ErrInvalidImage, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", graph.ErrInvalidImage, path, err)
	}
	return img, nil
}

// DetectFile loads an image from disk and runs Detect on it.
func (p *Pipeline) DetectFile(ctx context.Context, path string) (*graph.DetectionResult, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return p.Detect(ctx, img)
}
