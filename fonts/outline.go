package fonts

import (
	"fmt"
	"image"
	"math"

	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"
)

// outlineRenderer scan-converts vector outlines into coverage masks.
type outlineRenderer struct {
	face *gofont.Face
	upem float32
}

func newOutlineRenderer(face *gofont.Face) *outlineRenderer {
	return &outlineRenderer{face: face, upem: float32(face.Upem())}
}

func (r *outlineRenderer) render(code CharCode, size int) (Bitmap, error) {
	gid, ok := r.face.NominalGlyph(rune(code))
	if !ok {
		return Bitmap{}, fmt.Errorf("no glyph mapped")
	}
	outline, err := glyphOutline(r.face.GlyphData(gid))
	if err != nil {
		return Bitmap{}, err
	}
	scale := float32(size) / 64 / r.upem
	return rasterizeOutline(outline, scale), nil
}

func glyphOutline(data gofont.GlyphData) (gofont.GlyphOutline, error) {
	switch g := data.(type) {
	case nil:
		return gofont.GlyphOutline{}, nil
	case gofont.GlyphOutline:
		return g, nil
	case gofont.GlyphSVG:
		return g.Outline, nil
	case gofont.GlyphBitmap:
		if g.Outline != nil {
			return *g.Outline, nil
		}
		return gofont.GlyphOutline{}, fmt.Errorf("bitmap-only glyph")
	default:
		return gofont.GlyphOutline{}, fmt.Errorf("unsupported glyph data %T", data)
	}
}

// rasterizeOutline renders outline (font units, y up) at scale pixels per
// unit. The bitmap covers the outline's control box rounded outwards to whole
// pixels.
func rasterizeOutline(outline gofont.GlyphOutline, scale float32) Bitmap {
	if len(outline.Segments) == 0 {
		return Bitmap{}
	}
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for i := range outline.Segments {
		for _, p := range outline.Segments[i].ArgsSlice() {
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
	}
	x0 := int(math.Floor(float64(minX * scale)))
	x1 := int(math.Ceil(float64(maxX * scale)))
	y0 := int(math.Floor(float64(minY * scale)))
	y1 := int(math.Ceil(float64(maxY * scale)))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return Bitmap{}
	}

	tx := func(x float32) float32 { return x*scale - float32(x0) }
	ty := func(y float32) float32 { return float32(y1) - y*scale }

	z := vector.NewRasterizer(w, h)
	open := false
	for i := range outline.Segments {
		seg := &outline.Segments[i]
		a := seg.Args
		switch seg.Op {
		case opentype.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(tx(a[0].X), ty(a[0].Y))
			open = true
		case opentype.SegmentOpLineTo:
			z.LineTo(tx(a[0].X), ty(a[0].Y))
		case opentype.SegmentOpQuadTo:
			z.QuadTo(tx(a[0].X), ty(a[0].Y), tx(a[1].X), ty(a[1].Y))
		case opentype.SegmentOpCubeTo:
			z.CubeTo(tx(a[0].X), ty(a[0].Y), tx(a[1].X), ty(a[1].Y), tx(a[2].X), ty(a[2].Y))
		}
	}
	if open {
		z.ClosePath()
	}

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return Bitmap{Width: w, Height: h, Pix: dst.Pix}
}
