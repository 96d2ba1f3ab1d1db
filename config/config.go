// Package config loads filingscan settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/filingscan/intel"
)

// OCRConfig points at the external OCR service. An empty Endpoint leaves
// image extraction unavailable.
type OCRConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IntelConfig configures the news refresh.
type IntelConfig struct {
	Sources  []intel.Source `yaml:"sources"`
	Schedule string         `yaml:"schedule"`
	Interval time.Duration  `yaml:"interval"`
	Timeout  time.Duration  `yaml:"timeout"`
	MaxItems int            `yaml:"max_items"`
}

// ReportConfig configures report export.
type ReportConfig struct {
	// Dir receives compliance-validation-report.json. Empty disables the file sink.
	Dir string `yaml:"dir"`
	// Archive is a SQLite path for the report history. Empty disables it.
	Archive string `yaml:"archive"`
	Actor   string `yaml:"actor"`
}

// Config is the root configuration.
type Config struct {
	Listen        string       `yaml:"listen"`
	LogLevel      string       `yaml:"log_level"`
	MaxFileSize   int64        `yaml:"max_file_size"`
	ChunkMaxChars int          `yaml:"chunk_max_chars"`
	RuleBook      string       `yaml:"rule_book"`
	OCR           OCRConfig    `yaml:"ocr"`
	Intel         IntelConfig  `yaml:"intel"`
	Report        ReportConfig `yaml:"report"`
}

// DefaultSources are the regulator feeds refreshed when none are configured.
var DefaultSources = []intel.Source{
	{Name: "SEBI", URL: "https://www.sebi.gov.in/sebirss.xml"},
	{Name: "RBI", URL: "https://www.rbi.org.in/pressreleases_rss.xml"},
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 << 20
	}
	if c.ChunkMaxChars <= 0 {
		c.ChunkMaxChars = 450
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.OCR.Timeout <= 0 {
		c.OCR.Timeout = 60 * time.Second
	}
	if c.Intel.Sources == nil {
		c.Intel.Sources = append([]intel.Source(nil), DefaultSources...)
	}
	if c.Intel.Schedule == "" {
		c.Intel.Schedule = "@every 30m"
	}
	if c.Intel.Interval <= 0 {
		c.Intel.Interval = 2 * time.Second
	}
	if c.Intel.Timeout <= 0 {
		c.Intel.Timeout = 20 * time.Second
	}
	if c.Intel.MaxItems <= 0 {
		c.Intel.MaxItems = 5
	}
	if c.Report.Actor == "" {
		c.Report.Actor = "filingscan"
	}
}

// Load reads path, applies defaults, then FILINGSCAN_* environment
// overrides. A missing file is not an error. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	for i, s := range c.Intel.Sources {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("config: intel source %d needs a name and url", i)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// applyEnv overlays FILINGSCAN_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("FILINGSCAN_LISTEN", &c.Listen)
	str("FILINGSCAN_RULE_BOOK", &c.RuleBook)
	str("FILINGSCAN_OCR_ENDPOINT", &c.OCR.Endpoint)
	str("FILINGSCAN_OCR_LANGUAGE", &c.OCR.Language)
	str("FILINGSCAN_INTEL_SCHEDULE", &c.Intel.Schedule)
	str("FILINGSCAN_REPORT_DIR", &c.Report.Dir)
	str("FILINGSCAN_REPORT_ARCHIVE", &c.Report.Archive)
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	str("FILINGSCAN_LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("FILINGSCAN_MAX_FILE_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: FILINGSCAN_MAX_FILE_SIZE: %w", err)
		}
		c.MaxFileSize = n
	}
	if v, ok := lookup("FILINGSCAN_CHUNK_MAX_CHARS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: FILINGSCAN_CHUNK_MAX_CHARS: %w", err)
		}
		c.ChunkMaxChars = n
	}
	if v, ok := lookup("FILINGSCAN_INTEL_SOURCES"); ok && v != "" {
		srcs, err := parseSources(v)
		if err != nil {
			return err
		}
		c.Intel.Sources = srcs
	}
	return nil
}

// parseSources reads "Name=URL,Name=URL".
func parseSources(v string) ([]intel.Source, error) {
	var out []intel.Source
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("config: FILINGSCAN_INTEL_SOURCES: %q is not name=url", part)
		}
		out = append(out, intel.Source{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return out, nil
}
