package extractor

import (
	"errors"
	"fmt"

	"github.com/wudi/glyphkit/mapping"
	"github.com/wudi/glyphkit/ocr"
)

// Defaults used by DefaultConfig.
const (
	DefaultCanvasSize = 128
	// DefaultSizeParam is 108pt in 1/64 units, rendered at 72 dpi.
	DefaultSizeParam = 6912
	DefaultOutputDir = "output"
)

// Config controls a single extraction run.
type Config struct {
	// OutputDir receives one PNG per inked glyph and the mapping file.
	OutputDir string
	// MappingFile is the mapping file name inside OutputDir.
	MappingFile  string
	CanvasWidth  int
	CanvasHeight int
	// SizeParam is the nominal glyph size in 1/64 points at 72 dpi.
	SizeParam int
	// MaxCount stops the run after this many glyphs reached OCR. Zero means
	// no limit.
	MaxCount int
	// SkipEmpty omits blank glyphs from the mapping instead of recording "".
	SkipEmpty bool
	// Languages are passed to the OCR engine as hints.
	Languages []string
	// InputOptions are applied to every OCR input after the language hints.
	InputOptions []ocr.InputOption
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		MappingFile:  mapping.DefaultFileName,
		CanvasWidth:  DefaultCanvasSize,
		CanvasHeight: DefaultCanvasSize,
		SizeParam:    DefaultSizeParam,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.SizeParam <= 0 {
		return fmt.Errorf("size must be positive, got %d", c.SizeParam)
	}
	if c.MaxCount < 0 {
		return fmt.Errorf("max count must not be negative, got %d", c.MaxCount)
	}
	return nil
}
