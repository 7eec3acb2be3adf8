package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/graphextract/graphextract/internal/geometry"
	"github.com/graphextract/graphextract/internal/graph"
)

// TesseractEngine implements Engine using the Tesseract OCR engine via
// gosseract. Tesseract and the language data files must be installed on the
// system (e.g. apt-get install tesseract-ocr tesseract-ocr-eng).
//
// A fresh gosseract client is created per call: clients are not safe for
// concurrent use and recognition is bounded by the pipeline's OCR worker
// pool anyway.
type TesseractEngine struct{}

// NewTesseractEngine creates a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

// Recognize runs word-level OCR over the image.
//
// The context is checked before the (non-interruptible) Tesseract call;
// recognition itself is bounded by the engine, not by ctx.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, languages []string) ([]graph.TextRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("setting OCR language: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding image for OCR: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("setting OCR image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	regions := make([]graph.TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, graph.TextRegion{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds:     boundsFromRect(box.Box),
		})
	}
	return regions, nil
}

// boundsFromRect converts an exclusive-max image.Rectangle into the
// inclusive pixel bounds used throughout detection.
func boundsFromRect(r image.Rectangle) geometry.Bounds {
	b := geometry.Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X - 1, Y2: r.Max.Y - 1}
	if b.X2 < b.X1 {
		b.X2 = b.X1
	}
	if b.Y2 < b.Y1 {
		b.Y2 = b.Y1
	}
	return b
}
