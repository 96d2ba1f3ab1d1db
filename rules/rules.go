// Package rules evaluates an ingested corpus against a rule book.
//
// Three engines share one Engine value: Compliance, Analytics and Exam. Each
// is a pure function of its inputs and refuses to run on an empty session.
// Compliance and exam phrase matching is plain substring containment;
// analytics risk indicators are counted as whole words.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/filingscan/ingest"
)

// ErrNotReady is returned when an engine's inputs have not been produced yet.
var ErrNotReady = errors.New("not ready")

// Config configures an Engine.
type Config struct {
	// Book is the rule book. Default: DefaultBook().
	Book *Book

	// Logger for evaluation summaries.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Book == nil {
		c.Book = DefaultBook()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine runs the rule engines against one rule book.
type Engine struct {
	book   *Book
	logger *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	cfg.defaults()
	return &Engine{book: cfg.Book, logger: cfg.Logger}
}

// Book returns the engine's rule book.
func (e *Engine) Book() *Book { return e.book }

func notReady(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotReady, reason)
}

func requireDocuments(s *ingest.Session) error {
	if !s.Ready() {
		return notReady("no processed documents")
	}
	return nil
}

// corpus joins every document's text, lower-cased.
func corpus(s *ingest.Session) string {
	var b strings.Builder
	for i, d := range s.Documents {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Text)
	}
	return strings.ToLower(b.String())
}
