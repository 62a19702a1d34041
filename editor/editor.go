// Package editor serves the mapping store and glyph images over HTTP so a
// reviewer can correct recognized labels.
package editor

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/wudi/glyphkit/canvas"
	"github.com/wudi/glyphkit/mapping"
	"github.com/wudi/glyphkit/observability"
)

// MaxPayloadBytes bounds the size of a save request body.
const MaxPayloadBytes = 32 << 20

//go:embed static/index.html
var indexPage []byte

// Config locates the files the editor serves.
type Config struct {
	OutputDir   string
	MappingFile string
}

// DefaultConfig mirrors the extraction defaults.
func DefaultConfig() Config {
	return Config{OutputDir: "output", MappingFile: mapping.DefaultFileName}
}

// Server handles editor requests. Every request reads or replaces the files
// on disk; the server keeps no state of its own.
type Server struct {
	cfg   Config
	store *mapping.Store
	log   observability.Logger
	mux   *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Server) { s.log = observability.OrNop(l) }
}

// New builds the editor handler.
func New(cfg Config, opts ...Option) *Server {
	if cfg.MappingFile == "" {
		cfg.MappingFile = mapping.DefaultFileName
	}
	s := &Server{
		cfg:   cfg,
		store: mapping.Open(cfg.OutputDir, cfg.MappingFile),
		log:   observability.NopLogger{},
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/data", s.handleGetMapping)
	s.mux.HandleFunc("POST /api/save", s.handleSaveMapping)
	s.mux.HandleFunc("GET /glyphs/{file}", s.handleGlyph)
	return s
}

// Store exposes the mapping store backing the server.
func (s *Server) Store() *mapping.Store { return s.store }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Info("request",
		observability.String("method", r.Method),
		observability.String("path", r.URL.Path),
		observability.Int("status", rec.status),
		observability.Duration("duration", time.Since(start)))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Load()
	switch {
	case errors.Is(err, mapping.ErrNotFound):
		writeError(w, http.StatusNotFound, s.cfg.MappingFile+" not found")
		return
	case err != nil:
		s.log.Error("load mapping", observability.Error("error", err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body, err := mapping.Encode(m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tag := etag(body)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if matchesETag(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
}

func (s *Server) handleSaveMapping(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("payload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	m, err := decodePayload(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Save(m); err != nil {
		s.log.Error("save mapping", observability.Error("error", err))
		writeError(w, http.StatusInternalServerError, "unable to write "+s.cfg.MappingFile+": "+err.Error())
		return
	}
	s.log.Info("mapping replaced", observability.Int("entries", len(m)))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// decodePayload accepts only a JSON object of strings.
func decodePayload(data []byte) (mapping.Mapping, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.New("invalid JSON")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("payload must be a JSON object")
	}
	m := make(mapping.Mapping, len(obj))
	for k, val := range obj {
		text, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("payload values must be strings, %q is %s", k, jsonKind(val))
		}
		m[k] = text
	}
	return m, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case []any:
		return "an array"
	default:
		return "an object"
	}
}

func (s *Server) handleGlyph(w http.ResponseWriter, r *http.Request) {
	code, ok := parseGlyphFile(r.PathValue("file"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	name := canvas.FileName(code)
	path := filepath.Join(s.cfg.OutputDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("read glyph", observability.String("path", path), observability.Error("error", err))
		}
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var modTime time.Time
	if fi, err := os.Stat(path); err == nil {
		modTime = fi.ModTime()
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("ETag", etag(data))
	http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
}

// parseGlyphFile accepts "<decimal>.png".
func parseGlyphFile(file string) (uint32, bool) {
	digits, ok := strings.CutSuffix(file, ".png")
	if !ok || digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	code, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(code), true
}

func etag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func matchesETag(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
