// Package ocr defines the abstraction layer for plugging OCR engines
// (Tesseract, PaddleOCR serving endpoints) into the glyph labeling pipeline.
// The interfaces are intentionally small and transport-agnostic so engines can
// be backed by local binaries, native libraries, or remote APIs without leaking
// provider-specific concerns into callers.
package ocr
