package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rulebook.yaml
var defaultBookYAML []byte

// Rule is one regulatory check in the rule book.
type Rule struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Severity string   `json:"severity" yaml:"severity"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Book is the fixed vocabulary the engines evaluate against. It is read-only
// once parsed.
type Book struct {
	Rules          []Rule   `json:"rules" yaml:"rules"`
	WeakControls   []string `json:"weak_controls" yaml:"weak_controls"`
	RiskIndicators []string `json:"risk_indicators" yaml:"risk_indicators"`
}

var (
	defaultBookOnce sync.Once
	defaultBook     *Book
)

// DefaultBook returns the embedded rule book.
func DefaultBook() *Book {
	defaultBookOnce.Do(func() {
		b, err := ParseBook(defaultBookYAML)
		if err != nil {
			panic("rules: embedded rule book: " + err.Error())
		}
		defaultBook = b
	})
	return defaultBook
}

// LoadBook reads a YAML rule book from path.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule book: %w", err)
	}
	return ParseBook(data)
}

// ParseBook decodes and validates a YAML rule book. Keywords and phrases are
// lower-cased so matching only has to fold the corpus.
func ParseBook(data []byte) (*Book, error) {
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse rule book: %w", err)
	}
	if len(b.Rules) == 0 {
		return nil, errors.New("rule book: no rules")
	}

	seen := make(map[string]bool, len(b.Rules))
	for i := range b.Rules {
		r := &b.Rules[i]
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return nil, fmt.Errorf("rule book: rule %d has no id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule book: duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if r.Label == "" {
			r.Label = r.ID
		}
		r.Keywords = lowerAll(r.Keywords)
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule book: rule %q has no keywords", r.ID)
		}
	}
	b.WeakControls = lowerAll(b.WeakControls)
	b.RiskIndicators = lowerAll(b.RiskIndicators)
	return &b, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
