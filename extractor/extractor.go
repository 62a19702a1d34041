// Package extractor drives the glyph to dataset pipeline: every charcode of a
// font is rasterized, composited onto a canvas, persisted as PNG, recognized
// by an OCR engine and recorded in a mapping file.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wudi/glyphkit/canvas"
	"github.com/wudi/glyphkit/fonts"
	"github.com/wudi/glyphkit/mapping"
	"github.com/wudi/glyphkit/observability"
	"github.com/wudi/glyphkit/ocr"
	"github.com/wudi/glyphkit/scripting"
)

// Extractor runs extractions for one font.
type Extractor struct {
	cfg    Config
	font   fonts.Rasterizer
	engine ocr.Engine
	labels scripting.LabelFunc
	store  *mapping.Store
	log    observability.Logger
	tracer observability.Tracer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(e *Extractor) { e.log = observability.OrNop(l) }
}

// WithTracer sets the tracer.
func WithTracer(t observability.Tracer) Option {
	return func(e *Extractor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithLabelFunc installs a post-processing hook for recognized labels.
func WithLabelFunc(fn scripting.LabelFunc) Option {
	return func(e *Extractor) { e.labels = fn }
}

// New validates cfg and builds an extractor.
func New(cfg Config, font fonts.Rasterizer, engine ocr.Engine, opts ...Option) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if font == nil {
		return nil, errors.New("font is required")
	}
	if engine == nil {
		return nil, errors.New("ocr engine is required")
	}
	if cfg.MappingFile == "" {
		cfg.MappingFile = mapping.DefaultFileName
	}
	e := &Extractor{
		cfg:    cfg,
		font:   font,
		engine: engine,
		store:  mapping.Open(cfg.OutputDir, cfg.MappingFile),
		log:    observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Store returns the mapping store the extractor saves into.
func (e *Extractor) Store() *mapping.Store { return e.store }

// Report summarizes a finished run.
type Report struct {
	Mapping mapping.Mapping
	// Processed counts glyphs that reached OCR.
	Processed int
	Blank     int
	Unlabeled int
	Dropped   int
	// Truncated is set when MaxCount ended the run early.
	Truncated bool
	Elapsed   time.Duration
}

// Run processes every charcode in ascending order and saves the mapping,
// replacing any previous file. Any rasterization, write or OCR failure aborts
// the run and leaves the mapping file untouched.
func (e *Extractor) Run(ctx context.Context) (rep *Report, err error) {
	start := time.Now()
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanExtractRun)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	codes := e.font.Charcodes()
	span.SetTag("charcodes", len(codes))
	e.log.Info("extracting glyphs",
		observability.Int("charcodes", len(codes)),
		observability.Int("width", e.cfg.CanvasWidth),
		observability.Int("height", e.cfg.CanvasHeight),
		observability.Int("size", e.cfg.SizeParam),
		observability.String("output", e.cfg.OutputDir))

	rep = &Report{Mapping: make(mapping.Mapping)}
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reached, err := e.process(ctx, code, rep)
		if err != nil {
			return nil, fmt.Errorf("process U+%s: %w", code.Hex(), err)
		}
		if !reached {
			continue
		}
		rep.Processed++
		if e.cfg.MaxCount > 0 && rep.Processed >= e.cfg.MaxCount {
			rep.Truncated = true
			e.log.Info("max count reached", observability.Int("max_count", e.cfg.MaxCount))
			break
		}
	}

	if err := e.store.Save(rep.Mapping); err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}
	rep.Elapsed = time.Since(start)
	e.log.Info("mapping saved", observability.String("path", e.store.Path()))
	e.log.Info("extraction finished",
		observability.Int("processed", rep.Processed),
		observability.Int("blank", rep.Blank),
		observability.Int("unlabeled", rep.Unlabeled),
		observability.Int("entries", len(rep.Mapping)),
		observability.Duration("elapsed", rep.Elapsed))
	return rep, nil
}

// process handles one charcode. reached reports whether the glyph went
// through OCR and so counts towards MaxCount.
func (e *Extractor) process(ctx context.Context, code fonts.CharCode, rep *Report) (reached bool, err error) {
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanProcessGlyph)
	span.SetTag("charcode", uint32(code))
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	bm, err := e.font.Rasterize(code, e.cfg.SizeParam)
	if err != nil {
		return false, err
	}
	if err := bm.Validate(); err != nil {
		return false, err
	}
	if bm.Blank() {
		rep.Blank++
		if !e.cfg.SkipEmpty {
			rep.Mapping[code.String()] = ""
		}
		e.log.Debug("blank glyph", observability.String("charcode", code.String()))
		return false, nil
	}

	img := canvas.Compose(bm, e.cfg.CanvasWidth, e.cfg.CanvasHeight)
	path := filepath.Join(e.cfg.OutputDir, canvas.FileName(uint32(code)))
	data, err := canvas.WritePNG(path, img)
	if err != nil {
		return false, err
	}

	label, ok, err := e.recognize(ctx, code, path, data)
	if err != nil {
		return false, err
	}
	if !ok {
		rep.Unlabeled++
		e.log.Debug("no text recognized", observability.String("charcode", code.String()))
		return true, nil
	}
	if e.labels != nil {
		label, ok, err = e.labels.Apply(ctx, uint32(code), label)
		if err != nil {
			return false, err
		}
		if !ok {
			rep.Dropped++
			return true, nil
		}
	}
	rep.Mapping[code.String()] = label
	e.log.Debug("glyph labeled",
		observability.String("charcode", code.String()),
		observability.String("label", label),
		observability.String("path", path))
	return true, nil
}

func (e *Extractor) recognize(ctx context.Context, code fonts.CharCode, path string, data []byte) (string, bool, error) {
	ctx, span := e.tracer.StartSpan(ctx, observability.SpanRecognize)
	defer span.Finish()
	span.SetTag("engine", e.engine.Name())

	var opts []ocr.InputOption
	if len(e.cfg.Languages) > 0 {
		opts = append(opts, ocr.WithLanguages(e.cfg.Languages...))
	}
	opts = append(opts, e.cfg.InputOptions...)
	res, err := e.engine.Recognize(ctx, ocr.NewPNGInput(code.String(), path, data, opts...))
	if err != nil {
		span.SetError(err)
		return "", false, fmt.Errorf("recognize with %s: %w", e.engine.Name(), err)
	}
	label, ok := ocr.FirstLabel(res)
	return label, ok, nil
}
