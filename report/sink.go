package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink persists or exports a finished report.
type Sink interface {
	Write(ctx context.Context, r *Report) error
}

// DefaultFileName is the export name used when JSONFileSink.Path is a directory.
const DefaultFileName = "compliance-validation-report.json"

// JSONFileSink writes the report as indented JSON. Path may be a file or an
// existing directory; the file is replaced atomically.
type JSONFileSink struct {
	Path string
}

func (s JSONFileSink) Write(_ context.Context, r *Report) error {
	path := s.Path
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return fmt.Errorf("report: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("report: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("report: rename: %w", err)
	}
	return nil
}

// WriterSink writes the report as one line of JSON to W.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(_ context.Context, r *Report) error {
	if err := json.NewEncoder(s.W).Encode(r); err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	return nil
}

// MultiSink writes to every sink in order and stops at the first error.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, r *Report) error {
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
