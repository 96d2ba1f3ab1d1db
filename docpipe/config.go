package docpipe

import "log/slog"

// Config configures the document pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// OCRLanguage is the language hint passed to the OCR backend (default: "eng").
	OCRLanguage string `json:"ocr_language" yaml:"ocr_language"`

	// PDF and OCR are optional backends. A nil backend means the capability
	// is absent: matching files yield an empty result instead of an error.
	PDF PDFExtractor `json:"-" yaml:"-"`
	OCR OCRExtractor `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = "eng"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
