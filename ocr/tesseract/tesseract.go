// Package tesseract provides the default OCR engine, backed by the
// gosseract bindings to libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/glyphkit/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewTesseractEngine())
}

const pageSegModeVar = "tessedit_pageseg_mode"

// TesseractEngine implements ocr.Engine using a fresh gosseract client per
// image.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	// PageSegMode applies when the input carries no explicit PSM metadata.
	PageSegMode int
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine tuned for
// single-glyph images.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{
		clientFactory: gosseract.NewClient,
		PageSegMode:   ocr.TesseractPSMSingleChar,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input. Each text line Tesseract
// reports becomes one ocr.TextLine with its text as the only candidate.
func (e *TesseractEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	c := e.clientFactory()
	defer c.Close()
	return e.recognizeWithClient(c, in)
}

func (e *TesseractEngine) recognizeWithClient(c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	if _, ok := in.Metadata[pageSegModeVar]; !ok && e.PageSegMode > 0 {
		if err := c.SetVariable(gosseract.SettableVariable(pageSegModeVar), strconv.Itoa(e.PageSegMode)); err != nil {
			return ocr.Result{}, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	plain := strings.TrimSpace(text)

	lines := extractLines(c)
	if len(lines) == 0 && plain != "" {
		lines = []ocr.TextLine{{Text: plain, Candidates: []string{plain}}}
	}
	block := ocr.TextBlock{
		Text:       plain,
		Bounds:     mergeBounds(lines),
		Lines:      lines,
		Confidence: averageConfidence(lines),
	}

	return ocr.Result{
		InputID:   in.ID,
		PlainText: plain,
		Blocks:    []ocr.TextBlock{block},
		Language:  firstLanguage(in.Languages),
	}, nil
}

func extractLines(c *gosseract.Client) []ocr.TextLine {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	lines := make([]ocr.TextLine, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		line := ocr.TextLine{
			Text:       text,
			Bounds:     ocr.Region{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y), Width: float64(b.Box.Dx()), Height: float64(b.Box.Dy())},
			Confidence: b.Confidence / 100.0,
		}
		if text != "" {
			line.Candidates = []string{text}
		}
		lines = append(lines, line)
	}
	return lines
}

func averageConfidence(lines []ocr.TextLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.Confidence
	}
	return sum / float64(len(lines))
}

func mergeBounds(lines []ocr.TextLine) ocr.Region {
	if len(lines) == 0 {
		return ocr.Region{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	var maxX, maxY float64
	for _, l := range lines {
		minX = math.Min(minX, l.Bounds.X)
		minY = math.Min(minY, l.Bounds.Y)
		maxX = math.Max(maxX, l.Bounds.X+l.Bounds.Width)
		maxY = math.Max(maxY, l.Bounds.Y+l.Bounds.Height)
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
