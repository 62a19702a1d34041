package ocr

import (
	"context"
	"iter"
)

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG ImageFormat = "image/png"
)

// Region describes a rectangular area in pixel coordinates with the origin in
// the upper-left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Input encapsulates a single image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier that is echoed back in the
	// corresponding Result. The glyph pipeline uses the decimal charcode.
	ID string
	// Image is the encoded image payload in the format specified by Format.
	Image []byte
	// Path is the location the image was persisted to, if any.
	Path string
	// Format declares the image content type (e.g., image/png).
	Format ImageFormat
	// DPI carries the effective dots-per-inch for the image; zero means unknown.
	DPI int
	// Languages is a list of language hints (e.g., "eng", "chi_sim") that
	// providers can use to select trained data.
	Languages []string
	// Metadata allows callers to pass through engine-specific knobs without
	// hard-coding them into the API surface.
	Metadata map[string]string
}

// TextLine is one detected line. Candidates holds the recognized strings for
// the line, best first; an empty list means nothing was recognized.
type TextLine struct {
	Text       string
	Candidates []string
	Bounds     Region
	Confidence float64
}

// TextBlock aggregates lines that form a logical block.
type TextBlock struct {
	Text       string
	Bounds     Region
	Lines      []TextLine
	Confidence float64
}

// Result captures OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Blocks carries the structured layout with positional metadata.
	Blocks []TextBlock
	// Language indicates the dominant language detected, if known.
	Language string
}

// Lines yields every detected line in block order.
func (r Result) Lines() iter.Seq[TextLine] {
	return func(yield func(TextLine) bool) {
		for _, b := range r.Blocks {
			for _, l := range b.Lines {
				if !yield(l) {
					return
				}
			}
		}
	}
}

// Engine is the simplest OCR provider contract: one image in, one result out.
// Recognize blocks until the provider answers.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
