// Package canvas composites rasterized glyph masks onto fixed-size grayscale
// canvases and encodes them as PNG.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"

	"golang.org/x/image/draw"

	"github.com/wudi/glyphkit/fonts"
)

const (
	// Background is the canvas fill value.
	Background = 0xff
	// Ink is the value composited through the glyph mask.
	Ink = 0x00
)

// Compose centers bm on a white width x height canvas and paints black ink
// through it. Glyphs larger than the canvas are cropped around the center,
// never scaled. A blank bitmap yields an all-white canvas.
func Compose(bm fonts.Bitmap, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, max(width, 0), max(height, 0)))
	for i := range dst.Pix {
		dst.Pix[i] = Background
	}
	if bm.Blank() || dst.Rect.Empty() {
		return dst
	}
	ox, oy := Offset(width, height, bm.Width, bm.Height)
	r := image.Rect(ox, oy, ox+bm.Width, oy+bm.Height)
	draw.DrawMask(dst, r, image.NewUniform(color.Gray{Y: Ink}), image.Point{}, bm.Alpha(), image.Point{}, draw.Over)
	return dst
}

// Offset returns the top-left position that centers a w x h bitmap on a
// canvasW x canvasH canvas. Odd remainders round toward negative infinity,
// so oversize bitmaps get negative offsets.
func Offset(canvasW, canvasH, w, h int) (x, y int) {
	return floorDiv(canvasW-w, 2), floorDiv(canvasH-h, 2)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EncodePNG encodes img as an 8-bit grayscale PNG.
func EncodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePNG encodes img and writes it to path, replacing any existing file.
func WritePNG(path string, img *image.Gray) ([]byte, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return data, nil
}

// FileName returns the image file name for a charcode, e.g. "65.png".
func FileName(code uint32) string {
	return strconv.FormatUint(uint64(code), 10) + ".png"
}
