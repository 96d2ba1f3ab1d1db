// Package docpipe extracts plain text from uploaded filing documents.
//
// Supported formats:
//   - .txt, .json: raw passthrough, one unit
//   - .csv: raw passthrough, one unit per line
//   - .pdf: delegated to a PDFExtractor (pdfcpu by default), one unit per page
//   - .png, .jpg, .jpeg: delegated to an OCRExtractor, one unit
//
// Any other extension is a no-op: empty text, zero units, no error.
// Missing PDF/OCR backends behave the same way for their formats.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{PDF: docpipe.NewPdfcpuExtractor()})
//	res, err := pipe.Extract(ctx, docpipe.File{Name: "ar2024.pdf", Data: raw})
//	fmt.Println(res.Units, "pages")
package docpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrTooLarge is returned for files above Config.MaxFileSize.
var ErrTooLarge = errors.New("docpipe: file too large")

type strategy func(ctx context.Context, f File) (Result, error)

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg        Config
	logger     *slog.Logger
	strategies map[Format]strategy
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
	p.strategies = map[Format]strategy{
		FormatText:    p.extractText,
		FormatCSV:     p.extractCSV,
		FormatPDF:     p.extractPDF,
		FormatImage:   p.extractImage,
		FormatUnknown: p.extractNothing,
	}
	return p
}

// Capabilities reports which optional backends are configured.
func (p *Pipeline) Capabilities() map[Format]bool {
	return map[Format]bool{
		FormatText:  true,
		FormatCSV:   true,
		FormatPDF:   p.cfg.PDF != nil,
		FormatImage: p.cfg.OCR != nil,
	}
}

// Extract routes f to the strategy for its format. Only backend faults and
// oversized input are errors.
func (p *Pipeline) Extract(ctx context.Context, f File) (Result, error) {
	if f.Size() > p.cfg.MaxFileSize {
		return Result{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, f.Name, f.Size(), p.cfg.MaxFileSize)
	}

	format := Detect(f.Name)
	p.logger.Debug("extracting document", "document", f.Name, "format", format, "bytes", f.Size())

	res, err := p.strategies[format](ctx, f)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s (%s): %w", f.Name, format, err)
	}
	res.Format = format
	return res, nil
}

func (p *Pipeline) extractText(_ context.Context, f File) (Result, error) {
	return Result{Text: string(f.Data), Units: 1}, nil
}

func (p *Pipeline) extractCSV(_ context.Context, f File) (Result, error) {
	text := string(f.Data)
	return Result{Text: text, Units: countLines(text)}, nil
}

func (p *Pipeline) extractPDF(ctx context.Context, f File) (Result, error) {
	if p.cfg.PDF == nil {
		p.logger.Debug("no pdf backend, skipping", "document", f.Name)
		return Result{}, nil
	}
	out, err := p.cfg.PDF.ExtractPDF(ctx, f.Data)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: out.Text, Units: out.Pages}, nil
}

func (p *Pipeline) extractImage(ctx context.Context, f File) (Result, error) {
	if p.cfg.OCR == nil {
		p.logger.Debug("no ocr backend, skipping", "document", f.Name)
		return Result{}, nil
	}
	text, err := p.cfg.OCR.RecognizeImage(ctx, f.Data, p.cfg.OCRLanguage)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Units: 1}, nil
}

func (p *Pipeline) extractNothing(_ context.Context, f File) (Result, error) {
	p.logger.Debug("unsupported format, skipping", "document", f.Name)
	return Result{}, nil
}

// countLines counts newline-delimited lines. A trailing newline does not
// open a new line; empty input has zero lines.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
}
