package docpipe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MaxOCRResponseBytes caps the body read from the OCR service.
const MaxOCRResponseBytes = 16 << 20

// HTTPOCR is an OCRExtractor backed by a remote recognition service.
// It POSTs {"image": <base64>, "format": "png"|"jpeg", "language": "eng"}
// and expects {"text": "..."} in return.
type HTTPOCR struct {
	endpoint string
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// NewHTTPOCR creates an OCR client for endpoint. timeout <= 0 defaults to 60s.
func NewHTTPOCR(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTPOCR {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPOCR{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		maxBytes: MaxOCRResponseBytes,
		logger:   logger,
	}
}

type ocrRequest struct {
	Image    string `json:"image"`
	Format   string `json:"format"`
	Language string `json:"language"`
}

type ocrResponse struct {
	Text string `json:"text"`
}

// RecognizeImage implements OCRExtractor.
func (o *HTTPOCR) RecognizeImage(ctx context.Context, data []byte, lang string) (string, error) {
	body, err := json.Marshal(ocrRequest{
		Image:    base64.StdEncoding.EncodeToString(data),
		Format:   imageFormat(data),
		Language: lang,
	})
	if err != nil {
		return "", fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ocr service returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read ocr response: %w", err)
	}
	if int64(len(raw)) > o.maxBytes {
		return "", fmt.Errorf("ocr response exceeds %d bytes", o.maxBytes)
	}
	var out ocrResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	o.logger.Debug("ocr response received", "duration", time.Since(start), "chars", len(out.Text))
	return out.Text, nil
}

// imageFormat sniffs PNG vs JPEG from the magic bytes; JPEG is the fallback.
func imageFormat(data []byte) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "png"
	}
	return "jpeg"
}
