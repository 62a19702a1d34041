package canvas

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/wudi/glyphkit/fonts"
)

func solid(w, h int, alpha byte) fonts.Bitmap {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = alpha
	}
	return fonts.Bitmap{Width: w, Height: h, Pix: pix}
}

// inkBounds returns the bounding box of non-background pixels.
func inkBounds(img *image.Gray) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y != Background {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestComposeCentersGlyph(t *testing.T) {
	cases := []struct{ cw, ch, w, h int }{
		{128, 128, 40, 60},
		{128, 128, 41, 61},
		{100, 50, 1, 1},
		{64, 64, 64, 64},
	}
	for _, tc := range cases {
		img := Compose(solid(tc.w, tc.h, 0xff), tc.cw, tc.ch)
		if img.Bounds() != image.Rect(0, 0, tc.cw, tc.ch) {
			t.Fatalf("canvas bounds %v, want %dx%d", img.Bounds(), tc.cw, tc.ch)
		}
		ink := inkBounds(img)
		if ink.Dx() != tc.w || ink.Dy() != tc.h {
			t.Fatalf("ink box %v, want %dx%d", ink, tc.w, tc.h)
		}
		wantX, wantY := (tc.cw-tc.w)/2, (tc.ch-tc.h)/2
		if d := ink.Min.X - wantX; d < -1 || d > 1 {
			t.Fatalf("ink x %d, want %d±1", ink.Min.X, wantX)
		}
		if d := ink.Min.Y - wantY; d < -1 || d > 1 {
			t.Fatalf("ink y %d, want %d±1", ink.Min.Y, wantY)
		}
	}
}

func TestComposeClipsOversizeGlyph(t *testing.T) {
	img := Compose(solid(200, 10, 0xff), 128, 128)
	if img.Bounds() != image.Rect(0, 0, 128, 128) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if len(img.Pix) != 128*128 {
		t.Fatalf("unexpected pix length %d", len(img.Pix))
	}
	ink := inkBounds(img)
	if ink.Min.X != 0 || ink.Max.X != 128 {
		t.Fatalf("oversize glyph should span the full width, got %v", ink)
	}
	if ink.Min.Y != 59 || ink.Dy() != 10 {
		t.Fatalf("expected vertical centering at 59, got %v", ink)
	}
}

func TestComposeCropsSymmetrically(t *testing.T) {
	// A 6 wide glyph whose columns carry distinct alpha, on a 2 wide canvas:
	// offset -2 keeps columns 2 and 3.
	bm := fonts.Bitmap{Width: 6, Height: 1, Pix: []byte{0xff, 0xff, 0x00, 0xff, 0xff, 0xff}}
	img := Compose(bm, 2, 1)
	if got := img.GrayAt(0, 0).Y; got != Background {
		t.Fatalf("column 2 has no ink, got %d", got)
	}
	if got := img.GrayAt(1, 0).Y; got != Ink {
		t.Fatalf("column 3 is full ink, got %d", got)
	}
}

func TestOffsetFloors(t *testing.T) {
	cases := []struct{ cw, w, want int }{
		{128, 40, 44},
		{128, 41, 43},
		{128, 128, 0},
		{128, 130, -1},
		{128, 131, -2},
		{2, 7, -3},
	}
	for _, tc := range cases {
		if x, _ := Offset(tc.cw, tc.cw, tc.w, tc.w); x != tc.want {
			t.Fatalf("Offset(%d, %d) = %d, want %d", tc.cw, tc.w, x, tc.want)
		}
	}
}

func TestComposeBlankIsWhite(t *testing.T) {
	img := Compose(fonts.Bitmap{}, 16, 8)
	for i, v := range img.Pix {
		if v != Background {
			t.Fatalf("pixel %d = %d, want background", i, v)
		}
	}
}

func TestComposeBlendsAlpha(t *testing.T) {
	img := Compose(fonts.Bitmap{Width: 3, Height: 1, Pix: []byte{0x00, 0x80, 0xff}}, 3, 1)
	want := []int{0xff, 0x7f, 0x00}
	for x, w := range want {
		got := int(img.GrayAt(x, 0).Y)
		if d := got - w; d < -1 || d > 1 {
			t.Fatalf("pixel %d = %d, want %d±1", x, got, w)
		}
	}
}

func TestComposeDeterministic(t *testing.T) {
	bm := solid(17, 23, 0x99)
	a := Compose(bm, 32, 32)
	b := Compose(bm, 32, 32)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("compose is not deterministic")
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "65.png")
	img := Compose(solid(10, 10, 0xff), 32, 24)
	data, err := WritePNG(path, img)
	if err != nil {
		t.Fatalf("write png: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	gray, ok := decoded.(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray, got %T", decoded)
	}
	if gray.Bounds().Dx() != 32 || gray.Bounds().Dy() != 24 {
		t.Fatalf("unexpected decoded size %v", gray.Bounds())
	}
	if !bytes.Equal(gray.Pix, img.Pix) {
		t.Fatalf("decoded pixels differ from canvas")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(65); got != "65.png" {
		t.Fatalf("FileName(65) = %q", got)
	}
}
