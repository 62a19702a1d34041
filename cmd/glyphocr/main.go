package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/wudi/glyphkit/extractor"
	"github.com/wudi/glyphkit/fonts"
	"github.com/wudi/glyphkit/gallery"
	"github.com/wudi/glyphkit/observability"
	"github.com/wudi/glyphkit/ocr"
	"github.com/wudi/glyphkit/ocr/paddle"
	_ "github.com/wudi/glyphkit/ocr/tesseract"
	"github.com/wudi/glyphkit/scripting"
)

type options struct {
	fontPath    string
	cfg         extractor.Config
	ocrEngine   string
	paddleURL   string
	labelScript string
	rasterizer  string
	noGallery   bool
	keepTTF     bool
	verbose     bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "glyphocr: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "glyphocr: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	opts := options{cfg: extractor.DefaultConfig()}
	fs := flag.NewFlagSet("glyphocr", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: glyphocr -i <font> [flags]\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.fontPath, "i", "", "Path to the input font (WOFF2, WOFF, EOT, TTF or OTF)")
	fs.StringVar(&opts.fontPath, "input-font", "", "Alias for -i")
	fs.StringVar(&opts.cfg.OutputDir, "o", opts.cfg.OutputDir, "Directory for glyph PNGs, mapping and gallery")
	fs.StringVar(&opts.cfg.OutputDir, "output-dir", opts.cfg.OutputDir, "Alias for -o")
	fs.StringVar(&opts.cfg.MappingFile, "m", opts.cfg.MappingFile, "Mapping file name inside the output directory")
	fs.StringVar(&opts.cfg.MappingFile, "mapping-json", opts.cfg.MappingFile, "Alias for -m")
	fs.IntVar(&opts.cfg.CanvasWidth, "width", opts.cfg.CanvasWidth, "Canvas width in pixels")
	fs.IntVar(&opts.cfg.CanvasHeight, "height", opts.cfg.CanvasHeight, "Canvas height in pixels")
	fs.IntVar(&opts.cfg.SizeParam, "font-size", opts.cfg.SizeParam, "Glyph size in 1/64 points at 72 dpi")
	fs.IntVar(&opts.cfg.MaxCount, "max-count", 0, "Stop after this many inked glyphs (0 = all)")
	fs.BoolVar(&opts.cfg.SkipEmpty, "skip-empty", false, "Leave blank glyphs out of the mapping")
	fs.StringVar(&opts.ocrEngine, "ocr", "tesseract", "OCR engine: tesseract or paddle")
	fs.StringVar(&opts.paddleURL, "paddle-url", paddle.DefaultEndpoint, "PaddleOCR serving endpoint")
	lang := fs.String("lang", "", "Comma separated OCR language hints, e.g. chi_sim,eng")
	psm := fs.String("psm", "", "Tesseract page segmentation: char or line (default char)")
	whitelist := fs.String("whitelist", "", "Restrict Tesseract to these characters")
	dpi := fs.Int("dpi", 0, "DPI hint passed to the OCR engine (0 = unset)")
	fs.StringVar(&opts.labelScript, "label-script", "", "JavaScript file defining label(code, text)")
	fs.StringVar(&opts.rasterizer, "rasterizer", string(fonts.EngineOutline), "Rasterizer: outline or sfnt")
	fs.BoolVar(&opts.noGallery, "no-gallery", false, "Do not write index.html")
	fs.BoolVar(&opts.keepTTF, "keep-ttf", false, "Also write the decompressed font into the output directory")
	fs.BoolVar(&opts.verbose, "v", false, "Log every glyph")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.fontPath == "" {
		fs.Usage()
		return options{}, errors.New("missing input font")
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *lang != "" {
		for _, l := range strings.Split(*lang, ",") {
			if l = strings.TrimSpace(l); l != "" {
				opts.cfg.Languages = append(opts.cfg.Languages, l)
			}
		}
	}
	switch opts.ocrEngine {
	case "tesseract", "paddle":
	default:
		return options{}, fmt.Errorf("unknown ocr engine %q", opts.ocrEngine)
	}
	switch *psm {
	case "":
	case "char":
		opts.cfg.InputOptions = append(opts.cfg.InputOptions, ocr.WithTesseractPSM(ocr.TesseractPSMSingleChar))
	case "line":
		opts.cfg.InputOptions = append(opts.cfg.InputOptions, ocr.WithTesseractPSM(ocr.TesseractPSMSingleLine))
	default:
		return options{}, fmt.Errorf("unknown psm %q, want char or line", *psm)
	}
	if *whitelist != "" {
		opts.cfg.InputOptions = append(opts.cfg.InputOptions, ocr.WithTesseractWhitelist(*whitelist))
	}
	if *dpi < 0 {
		return options{}, fmt.Errorf("invalid dpi %d", *dpi)
	}
	if *dpi > 0 {
		opts.cfg.InputOptions = append(opts.cfg.InputOptions, ocr.WithDPI(*dpi))
	}
	if err := opts.cfg.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func newLogger(verbose bool) observability.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newEngine picks the engine named by -ocr. Tesseract registers itself as the
// package default on import.
func newEngine(opts options) ocr.Engine {
	if opts.ocrEngine == "paddle" {
		return paddle.New(opts.paddleURL)
	}
	return ocr.DefaultEngine()
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger := newLogger(opts.verbose)

	data, err := os.ReadFile(opts.fontPath)
	if err != nil {
		return fmt.Errorf("read font: %w", err)
	}
	font, err := fonts.Open(data, fonts.Options{Engine: fonts.Engine(opts.rasterizer)})
	if err != nil {
		return fmt.Errorf("open font: %w", err)
	}
	info := font.Info()
	logger.Info("font loaded",
		observability.String("path", opts.fontPath),
		observability.String("family", info.Family),
		observability.String("format", string(info.Format)),
		observability.Int("glyphs", info.NumGlyphs))

	if opts.keepTTF {
		if err := os.MkdirAll(opts.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		base := strings.TrimSuffix(filepath.Base(opts.fontPath), filepath.Ext(opts.fontPath))
		ttfPath := filepath.Join(opts.cfg.OutputDir, base+".ttf")
		if err := os.WriteFile(ttfPath, font.SFNT(), 0o644); err != nil {
			return fmt.Errorf("write ttf: %w", err)
		}
		logger.Info("decompressed font written", observability.String("path", ttfPath))
	}

	extOpts := []extractor.Option{extractor.WithLogger(logger)}
	if opts.labelScript != "" {
		src, err := os.ReadFile(opts.labelScript)
		if err != nil {
			return fmt.Errorf("read label script: %w", err)
		}
		script, err := scripting.CompileLabelScript(ctx, string(src))
		if err != nil {
			return fmt.Errorf("compile label script: %w", err)
		}
		extOpts = append(extOpts, extractor.WithLabelFunc(script))
	}

	ext, err := extractor.New(opts.cfg, font, newEngine(opts), extOpts...)
	if err != nil {
		return fmt.Errorf("new extractor: %w", err)
	}
	rep, err := ext.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Mapping saved to: %s\n", ext.Store().Path())

	if opts.noGallery {
		return nil
	}
	saved, err := ext.Store().Load()
	if err != nil {
		return fmt.Errorf("reload mapping: %w", err)
	}
	htmlPath := filepath.Join(opts.cfg.OutputDir, gallery.FileName)
	if err := gallery.WriteFile(htmlPath, saved, gallery.Options{
		Title:   "Font Glyph OCR Results",
		Summary: summary(opts, info, rep),
	}); err != nil {
		return err
	}
	fmt.Printf("HTML gallery saved to: %s\n", htmlPath)
	return nil
}

func summary(opts options, info fonts.Info, rep *extractor.Report) string {
	name := info.Family
	if name == "" {
		name = filepath.Base(opts.fontPath)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** via %s\n\n", name, opts.ocrEngine)
	sb.WriteString("| processed | labeled | blank | unrecognized | truncated |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	labeled := rep.Processed - rep.Unlabeled - rep.Dropped
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %t |\n", rep.Processed, labeled, rep.Blank, rep.Unlabeled, rep.Truncated)
	return sb.String()
}
