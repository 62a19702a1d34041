package fonts

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// sfntRenderer renders glyphs through x/image/font/opentype faces, caching
// one face per requested size.
type sfntRenderer struct {
	font  *opentype.Font
	faces map[int]font.Face
}

func newSFNTRenderer(data []byte) (*sfntRenderer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse opentype: %w", err)
	}
	return &sfntRenderer{font: f, faces: make(map[int]font.Face)}, nil
}

func (r *sfntRenderer) face(size int) (font.Face, error) {
	if face, ok := r.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(size) / 64,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	r.faces[size] = face
	return face, nil
}

func (r *sfntRenderer) render(code CharCode, size int) (Bitmap, error) {
	face, err := r.face(size)
	if err != nil {
		return Bitmap{}, err
	}
	dr, mask, maskp, _, ok := face.Glyph(fixed.Point26_6{}, rune(code))
	if !ok {
		return Bitmap{}, fmt.Errorf("glyph unavailable")
	}
	w, h := dr.Dx(), dr.Dy()
	if w <= 0 || h <= 0 || mask == nil {
		return Bitmap{}, nil
	}
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	draw.Copy(dst, image.Point{}, mask, image.Rectangle{Min: maskp, Max: maskp.Add(dr.Size())}, draw.Src, nil)
	return Bitmap{Width: w, Height: h, Pix: dst.Pix}, nil
}
