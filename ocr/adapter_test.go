package ocr

import (
	"reflect"
	"testing"
)

func TestNewPNGInput(t *testing.T) {
	in := NewPNGInput("65", "/tmp/65.png", []byte{1, 2, 3},
		WithLanguages("eng", "chi_sim"),
		WithDPI(300),
		WithTesseractWhitelist("ABC"),
	)
	if in.Format != ImageFormatPNG {
		t.Fatalf("unexpected format: %v", in.Format)
	}
	if in.ID != "65" || in.Path != "/tmp/65.png" {
		t.Fatalf("unexpected identity: %q %q", in.ID, in.Path)
	}
	if !reflect.DeepEqual(in.Languages, []string{"eng", "chi_sim"}) {
		t.Fatalf("unexpected languages: %+v", in.Languages)
	}
	if in.DPI != 300 {
		t.Fatalf("unexpected dpi: %d", in.DPI)
	}
	if in.Metadata["tessedit_char_whitelist"] != "ABC" {
		t.Fatalf("unexpected metadata: %+v", in.Metadata)
	}
}

func TestWithLanguagesCopies(t *testing.T) {
	langs := []string{"eng"}
	in := NewPNGInput("1", "", nil, WithLanguages(langs...))
	langs[0] = "deu"
	if in.Languages[0] != "eng" {
		t.Fatalf("languages were not copied: %+v", in.Languages)
	}
}
