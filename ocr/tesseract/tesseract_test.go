package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/glyphkit/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderText(t *testing.T, text string) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDefaultEngineIsTesseract(t *testing.T) {
	if got := ocr.DefaultEngine().Name(); got != "tesseract" {
		t.Fatalf("expected tesseract default engine, got %q", got)
	}
}

func TestTesseractEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	in := ocr.NewPNGInput("65", "", renderText(t, "Hello Glyph"),
		ocr.WithLanguages("eng"),
		ocr.WithDPI(300),
		ocr.WithTesseractPSM(ocr.TesseractPSMSingleLine),
	)
	res, err := NewTesseractEngine().Recognize(context.Background(), in)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	label, ok := ocr.FirstLabel(res)
	if !ok || !strings.Contains(strings.ToLower(label), "hello") {
		t.Fatalf("unexpected label %q (ok=%v)", label, ok)
	}
	if res.InputID != "65" {
		t.Fatalf("unexpected input id: %s", res.InputID)
	}
}

func TestMergeBounds(t *testing.T) {
	lines := []ocr.TextLine{
		{Bounds: ocr.Region{X: 10, Y: 5, Width: 10, Height: 10}},
		{Bounds: ocr.Region{X: 0, Y: 20, Width: 5, Height: 5}},
	}
	got := mergeBounds(lines)
	want := ocr.Region{X: 0, Y: 5, Width: 20, Height: 20}
	if got != want {
		t.Fatalf("mergeBounds() = %+v, want %+v", got, want)
	}
	if averageConfidence(nil) != 0 {
		t.Fatalf("expected zero confidence for no lines")
	}
}
