package fonts

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func openGoRegular(t *testing.T, engine Engine) *Font {
	t.Helper()
	f, err := Open(goregular.TTF, Options{Engine: engine})
	if err != nil {
		t.Fatalf("open go regular (%s): %v", engine, err)
	}
	return f
}

func TestOpenDescribesFont(t *testing.T) {
	f := openGoRegular(t, EngineOutline)
	info := f.Info()
	if info.Family == "" {
		t.Fatalf("unexpected family: %q", info.Family)
	}
	if info.Format != FormatTrueType {
		t.Fatalf("unexpected format: %q", info.Format)
	}
	if info.NumGlyphs == 0 || info.UnitsPerEm == 0 {
		t.Fatalf("missing metrics: %+v", info)
	}
}

func TestCharcodesAscending(t *testing.T) {
	codes := openGoRegular(t, EngineOutline).Charcodes()
	if len(codes) < 95 {
		t.Fatalf("expected at least the ASCII range, got %d codes", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i] <= codes[i-1] {
			t.Fatalf("codes not strictly ascending at %d: %d <= %d", i, codes[i], codes[i-1])
		}
	}
	found := false
	for _, c := range codes {
		if c == 'A' {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'A' among charcodes")
	}
}

func TestRasterizeEngines(t *testing.T) {
	for _, engine := range []Engine{EngineOutline, EngineSFNT} {
		t.Run(string(engine), func(t *testing.T) {
			f := openGoRegular(t, engine)

			bm, err := f.Rasterize('A', 64*64)
			if err != nil {
				t.Fatalf("rasterize A: %v", err)
			}
			if bm.Blank() {
				t.Fatalf("expected ink for 'A'")
			}
			if len(bm.Pix) != bm.Width*bm.Height {
				t.Fatalf("pix length %d does not match %dx%d", len(bm.Pix), bm.Width, bm.Height)
			}
			if bm.Width > 64 || bm.Height > 64 {
				t.Fatalf("'A' at 64px em should fit in 64x64, got %dx%d", bm.Width, bm.Height)
			}
			var ink bool
			for _, v := range bm.Pix {
				if v > 0 {
					ink = true
					break
				}
			}
			if !ink {
				t.Fatalf("bitmap has no coverage")
			}

			space, err := f.Rasterize(' ', 64*64)
			if err != nil {
				t.Fatalf("rasterize space: %v", err)
			}
			if !space.Blank() {
				t.Fatalf("expected blank bitmap for space, got %dx%d", space.Width, space.Height)
			}
		})
	}
}

func TestRasterizeRejectsBadSize(t *testing.T) {
	f := openGoRegular(t, EngineOutline)
	if _, err := f.Rasterize('A', 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestOpenUnknownEngine(t *testing.T) {
	if _, err := Open(goregular.TTF, Options{Engine: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

func TestDecompress(t *testing.T) {
	out, err := Decompress(goregular.TTF)
	if err != nil {
		t.Fatalf("decompress ttf: %v", err)
	}
	if len(out) != len(goregular.TTF) {
		t.Fatalf("ttf should pass through unchanged")
	}
	if _, err := Decompress([]byte("definitely not a font")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"wOF2....":         FormatWOFF2,
		"wOFF....":         FormatWOFF,
		"OTTO....":         FormatOpenType,
		"true....":         FormatTrueType,
		"\x00\x01\x00\x00": FormatTrueType,
		"xx":               FormatUnknown,
	}
	for in, want := range cases {
		if got := DetectFormat([]byte(in)); got != want {
			t.Fatalf("DetectFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCharCodeFormatting(t *testing.T) {
	c := CharCode(0x41)
	if c.String() != "65" || c.Hex() != "0041" {
		t.Fatalf("unexpected formatting: %s %s", c.String(), c.Hex())
	}
}

func TestBitmapValidate(t *testing.T) {
	cases := []struct {
		bm   Bitmap
		fail bool
	}{
		{Bitmap{}, false},
		{Bitmap{Width: 2, Height: 2, Pix: make([]byte, 4)}, false},
		{Bitmap{Width: 4, Height: 4, Pix: []byte{255}}, true},
		{Bitmap{Width: 3, Height: 1}, true},
	}
	for _, tc := range cases {
		if err := tc.bm.Validate(); (err != nil) != tc.fail {
			t.Fatalf("Validate(%dx%d, %d pix) = %v, want failure %v", tc.bm.Width, tc.bm.Height, len(tc.bm.Pix), err, tc.fail)
		}
	}
}
