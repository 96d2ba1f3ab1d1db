// Package ingest runs a batch of uploaded files through the extraction
// pipeline one at a time and assembles the resulting Session.
//
// Documents are processed strictly in submission order. A fault (error or
// panic) in one document marks it failed and the batch moves on; the final
// Status always carries success and failure counts.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/filingscan/chunk"
	"github.com/hazyhaar/filingscan/docpipe"
)

// Extractor is the part of docpipe.Pipeline the orchestrator needs.
type Extractor interface {
	Extract(ctx context.Context, f docpipe.File) (docpipe.Result, error)
}

// ProgressFunc is called after each document settles, in order.
// index is zero-based.
type ProgressFunc func(index, total int, doc Document)

// Config configures the orchestrator.
type Config struct {
	// Chunk controls fragment length for the chunk index.
	Chunk chunk.Options `json:"chunk" yaml:"chunk"`

	// Progress is optional.
	Progress ProgressFunc `json:"-" yaml:"-"`

	// Logger for batch progress.
	Logger *slog.Logger `json:"-" yaml:"-"`

	now func() time.Time
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
}

// Orchestrator drives an Extractor over a batch.
type Orchestrator struct {
	extractor Extractor
	cfg       Config
	logger    *slog.Logger
}

// New creates an Orchestrator.
func New(extractor Extractor, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		extractor: extractor,
		cfg:       cfg,
		logger:    cfg.Logger,
	}
}

// tally is the fold accumulator.
type tally struct {
	docs      []Document
	succeeded int
	failed    int
}

// Run processes files in order and returns the new Session.
func (o *Orchestrator) Run(ctx context.Context, files []docpipe.File) *Session {
	acc := tally{docs: make([]Document, len(files))}
	for i, f := range files {
		acc.docs[i] = Document{
			Name:      f.Name,
			MediaType: mediaType(f),
			Size:      f.Size(),
			State:     StatePending,
		}
	}

	o.logger.Info("batch started", "documents", len(files))
	for i, f := range files {
		acc = o.step(ctx, acc, i, f)
		if o.cfg.Progress != nil {
			o.cfg.Progress(i, len(files), acc.docs[i])
		}
	}

	var chunks []chunk.Chunk
	for _, d := range acc.docs {
		if d.State != StateExtracted || strings.TrimSpace(d.Text) == "" {
			continue
		}
		chunks = append(chunks, chunk.Tag(d.Name, d.Text, o.cfg.Chunk)...)
	}

	status := Status{
		Total:     len(files),
		Succeeded: acc.succeeded,
		Failed:    acc.failed,
		Chunks:    len(chunks),
	}
	status.Message = statusMessage(status)
	o.logger.Info("batch finished",
		"succeeded", status.Succeeded,
		"failed", status.Failed,
		"chunks", status.Chunks)

	return &Session{
		Documents:   acc.docs,
		Chunks:      chunk.NewIndex(chunks),
		Status:      status,
		CompletedAt: o.cfg.now(),
	}
}

// step settles document i. It never lets a fault escape.
func (o *Orchestrator) step(ctx context.Context, acc tally, i int, f docpipe.File) tally {
	res, err := o.extractSafely(ctx, f)
	doc := &acc.docs[i]
	if err != nil {
		o.logger.Warn("document extraction failed", "document", f.Name, "error", err)
		*doc = Document{
			Name:      doc.Name,
			MediaType: doc.MediaType,
			Size:      doc.Size,
			State:     StateFailed,
			Error:     err.Error(),
		}
		acc.failed++
		return acc
	}

	doc.Text = res.Text
	doc.Units = res.Units
	doc.Quality = docpipe.EstimateQuality(res.Text)
	doc.TableSignals = docpipe.DetectTableSignals(res.Text)
	doc.Extracted = true
	doc.State = StateExtracted
	acc.succeeded++
	o.logger.Debug("document extracted",
		"document", f.Name,
		"units", doc.Units,
		"quality", doc.Quality,
		"table_signals", doc.TableSignals)
	return acc
}

func (o *Orchestrator) extractSafely(ctx context.Context, f docpipe.File) (res docpipe.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract %s: panic: %v", f.Name, r)
		}
	}()
	return o.extractor.Extract(ctx, f)
}

func statusMessage(s Status) string {
	switch {
	case s.Total == 0:
		return "No documents submitted."
	case s.Failed == 0:
		return fmt.Sprintf("Extraction completed cleanly. %d documents processed and %d chunks indexed.",
			s.Succeeded, s.Chunks)
	default:
		return fmt.Sprintf("Extraction completed with %d failures. %d of %d documents processed and %d chunks indexed.",
			s.Failed, s.Succeeded, s.Total, s.Chunks)
	}
}

func mediaType(f docpipe.File) string {
	if f.MediaType != "" {
		return f.MediaType
	}
	return "unknown"
}
