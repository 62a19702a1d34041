// Package paddle implements an OCR engine that talks to a PaddleOCR pipeline
// exposed through PaddleX serving (POST /ocr).
package paddle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wudi/glyphkit/ocr"
)

// DefaultEndpoint is the PaddleX serving address used when none is given.
const DefaultEndpoint = "http://127.0.0.1:8080/ocr"

const fileTypeImage = 1

// Engine posts images to a PaddleX OCR serving endpoint.
type Engine struct {
	endpoint string
	client   *http.Client
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

// New returns an engine for endpoint, the full URL of the /ocr route.
func New(endpoint string, opts ...Option) *Engine {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	e := &Engine{endpoint: endpoint, client: http.DefaultClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "paddle" }

type request struct {
	File     string `json:"file"`
	FileType int    `json:"fileType"`
}

type prunedResult struct {
	RecTexts  []string  `json:"rec_texts"`
	RecScores []float64 `json:"rec_scores"`
}

type response struct {
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	Result    struct {
		OCRResults []struct {
			PrunedResult prunedResult `json:"prunedResult"`
		} `json:"ocrResults"`
	} `json:"result"`
}

// Recognize sends the image and maps every returned OCR result to one
// ocr.TextLine whose candidates are the recognized texts in service order.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if len(in.Image) == 0 {
		return ocr.Result{}, fmt.Errorf("image data is empty")
	}
	body, err := json.Marshal(request{
		File:     base64.StdEncoding.EncodeToString(in.Image),
		FileType: fileTypeImage,
	})
	if err != nil {
		return ocr.Result{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return ocr.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("post %s: %w", e.endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("read response: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return ocr.Result{}, fmt.Errorf("paddle serving returned %s", resp.Status)
		}
		return ocr.Result{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.ErrorCode != 0 {
		return ocr.Result{}, fmt.Errorf("paddle serving error %d: %s", out.ErrorCode, out.ErrorMsg)
	}

	lines := make([]ocr.TextLine, 0, len(out.Result.OCRResults))
	var plain []string
	for _, r := range out.Result.OCRResults {
		line := ocr.TextLine{
			Text:       strings.Join(r.PrunedResult.RecTexts, " "),
			Candidates: r.PrunedResult.RecTexts,
		}
		if len(r.PrunedResult.RecScores) > 0 {
			line.Confidence = r.PrunedResult.RecScores[0]
		}
		if line.Text != "" {
			plain = append(plain, line.Text)
		}
		lines = append(lines, line)
	}
	return ocr.Result{
		InputID:   in.ID,
		PlainText: strings.Join(plain, "\n"),
		Blocks:    []ocr.TextBlock{{Text: strings.Join(plain, "\n"), Lines: lines}},
	}, nil
}
