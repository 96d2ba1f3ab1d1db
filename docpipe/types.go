package docpipe

import (
	"context"
	"path/filepath"
	"strings"
)

// Format is the closed set of extraction strategies a file can be routed to.
type Format string

const (
	FormatText    Format = "text" // txt, json
	FormatCSV     Format = "csv"
	FormatPDF     Format = "pdf"
	FormatImage   Format = "image" // png, jpg, jpeg
	FormatUnknown Format = "unknown"
)

var extFormats = map[string]Format{
	"txt":  FormatText,
	"json": FormatText,
	"csv":  FormatCSV,
	"pdf":  FormatPDF,
	"png":  FormatImage,
	"jpg":  FormatImage,
	"jpeg": FormatImage,
}

// Detect maps a file name to its format by case-insensitive extension.
// Names without a recognized extension map to FormatUnknown.
func Detect(name string) Format {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if f, ok := extFormats[ext]; ok {
		return f
	}
	return FormatUnknown
}

// SupportedExtensions returns the recognized extensions, lower-cased, without dots.
func SupportedExtensions() []string {
	return []string{"txt", "csv", "json", "pdf", "png", "jpg", "jpeg"}
}

// File is a raw document handed to the pipeline.
type File struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
}

// Size returns the byte length of the file content.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Result is what a strategy produced for one file.
// Units is a page count for PDFs, a line count for CSV, 1 otherwise.
type Result struct {
	Format Format `json:"format"`
	Text   string `json:"text"`
	Units  int    `json:"units"`
}

// PDFText is the output of a PDFExtractor.
type PDFText struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// PDFExtractor turns PDF bytes into text.
type PDFExtractor interface {
	ExtractPDF(ctx context.Context, data []byte) (PDFText, error)
}

// OCRExtractor recognizes text in an image. lang is a language hint such as "eng".
type OCRExtractor interface {
	RecognizeImage(ctx context.Context, data []byte, lang string) (string, error)
}
