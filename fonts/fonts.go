package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"

	gofont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// CharCode is a Unicode code point mapped by the font's cmap.
type CharCode uint32

// String formats the code the way glyph files and mapping keys name it.
func (c CharCode) String() string { return fmt.Sprintf("%d", uint32(c)) }

// Hex returns the zero-padded, upper-case hexadecimal label (e.g. "0041").
func (c CharCode) Hex() string { return fmt.Sprintf("%04X", uint32(c)) }

// Bitmap is an 8-bit coverage mask for one rasterized glyph, row-major with a
// stride equal to Width. A zero Width or Height denotes a blank glyph.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// Blank reports whether the bitmap carries no ink.
func (b Bitmap) Blank() bool { return b.Width <= 0 || b.Height <= 0 }

// Validate reports a bitmap whose pixel buffer does not cover Width*Height.
func (b Bitmap) Validate() error {
	if b.Blank() {
		return nil
	}
	if want := b.Width * b.Height; len(b.Pix) < want {
		return fmt.Errorf("bitmap %dx%d has %d pixels, want %d", b.Width, b.Height, len(b.Pix), want)
	}
	return nil
}

// Alpha exposes the bitmap as an image.Alpha without copying.
func (b Bitmap) Alpha() *image.Alpha {
	if b.Blank() {
		return image.NewAlpha(image.Rectangle{})
	}
	return &image.Alpha{
		Pix:    b.Pix,
		Stride: b.Width,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Rasterizer enumerates a font's character codes and renders glyph masks.
// Size is expressed in 1/64 point at 72 dpi, so size/64 is pixels per em.
type Rasterizer interface {
	Charcodes() []CharCode
	Rasterize(code CharCode, size int) (Bitmap, error)
}

// Engine names a rasterization backend.
type Engine string

const (
	// EngineOutline scan-converts go-text outlines with x/image/vector.
	EngineOutline Engine = "outline"
	// EngineSFNT renders through x/image/font/opentype faces.
	EngineSFNT Engine = "sfnt"
)

// Options configures Open.
type Options struct {
	Engine Engine
}

// Info carries descriptive font metadata.
type Info struct {
	Family     string
	PostScript string
	NumGlyphs  int
	UnitsPerEm int
	Format     Format
}

type renderer interface {
	render(code CharCode, size int) (Bitmap, error)
}

// Font is a parsed font ready for rasterization. It is not safe for
// concurrent use.
type Font struct {
	sfntData []byte
	face     *gofont.Face
	info     Info
	codes    []CharCode
	renderer renderer
}

// ErrNoCharcodes is returned when the font's cmap maps no character.
var ErrNoCharcodes = errors.New("font cmap maps no characters")

// Open decompresses data if needed and parses it as an SFNT font.
func Open(data []byte, opts Options) (*Font, error) {
	format := DetectFormat(data)
	sfntData, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	face, err := gofont.ParseTTF(bytes.NewReader(sfntData))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	info, err := describe(sfntData)
	if err != nil {
		return nil, err
	}
	info.Format = format

	f := &Font{sfntData: sfntData, face: face, info: info}
	f.codes = collectCharcodes(face)
	if len(f.codes) == 0 {
		return nil, ErrNoCharcodes
	}

	switch opts.Engine {
	case "", EngineOutline:
		f.renderer = newOutlineRenderer(face)
	case EngineSFNT:
		r, err := newSFNTRenderer(sfntData)
		if err != nil {
			return nil, err
		}
		f.renderer = r
	default:
		return nil, fmt.Errorf("unknown rasterizer engine %q", opts.Engine)
	}
	return f, nil
}

// Info returns descriptive metadata for the font.
func (f *Font) Info() Info { return f.info }

// SFNT returns the decompressed TrueType/OpenType bytes.
func (f *Font) SFNT() []byte { return f.sfntData }

// Charcodes returns every mapped code point in ascending order.
func (f *Font) Charcodes() []CharCode {
	return append([]CharCode(nil), f.codes...)
}

// Rasterize renders the glyph mapped to code at the given size.
func (f *Font) Rasterize(code CharCode, size int) (Bitmap, error) {
	if size <= 0 {
		return Bitmap{}, fmt.Errorf("invalid glyph size %d", size)
	}
	bm, err := f.renderer.render(code, size)
	if err != nil {
		return Bitmap{}, fmt.Errorf("rasterize U+%s: %w", code.Hex(), err)
	}
	return bm, nil
}

// collectCharcodes lists cmap entries that resolve to a real glyph, sorted
// the way FreeType's first/next char walk yields them.
func collectCharcodes(face *gofont.Face) []CharCode {
	if face.Cmap == nil {
		return nil
	}
	seen := make(map[CharCode]struct{})
	var codes []CharCode
	it := face.Cmap.Iter()
	for it.Next() {
		r, gid := it.Char()
		if gid == 0 || r < 0 {
			continue
		}
		c := CharCode(r)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func describe(data []byte) (Info, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return Info{}, fmt.Errorf("parse sfnt: %w", err)
	}
	buf := &sfnt.Buffer{}
	info := Info{
		NumGlyphs:  f.NumGlyphs(),
		UnitsPerEm: int(f.UnitsPerEm()),
	}
	if info.UnitsPerEm == 0 {
		return Info{}, fmt.Errorf("invalid unitsPerEm")
	}
	if family, _ := f.Name(buf, sfnt.NameIDFamily); family != "" {
		info.Family = strings.TrimSpace(family)
	}
	if ps, _ := f.Name(buf, sfnt.NameIDPostScript); ps != "" {
		info.PostScript = strings.TrimSpace(ps)
	}
	return info, nil
}
