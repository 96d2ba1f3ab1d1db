package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PdfcpuExtractor is the default PDFExtractor. It walks page content streams
// with pdfcpu and decodes Tj/TJ/' text operators. Pages without a text layer
// (scans) contribute nothing, so image-only PDFs return empty text with a
// valid page count.
type PdfcpuExtractor struct {
	conf *model.Configuration
}

// NewPdfcpuExtractor returns a PdfcpuExtractor with pdfcpu's default configuration.
func NewPdfcpuExtractor() *PdfcpuExtractor {
	return &PdfcpuExtractor{conf: model.NewDefaultConfiguration()}
}

// ExtractPDF implements PDFExtractor. Pages are joined with newlines.
func (e *PdfcpuExtractor) ExtractPDF(ctx context.Context, data []byte) (PDFText, error) {
	if err := ctx.Err(); err != nil {
		return PDFText{}, err
	}
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), e.conf)
	if err != nil {
		return PDFText{}, fmt.Errorf("pdfcpu read: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if text := extractPageText(pctx, pageNr); text != "" {
			pages = append(pages, text)
		}
	}
	return PDFText{Text: strings.Join(pages, "\n"), Pages: pctx.PageCount}, nil
}

// extractPageText extracts text from a single PDF page via pdfcpu content stream.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// pdfLiteralRe matches PDF string literals in parentheses, allowing escaped parens.
var pdfLiteralRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// extractTextFromStream reads text-showing operators out of a content stream.
// Tj, TJ and ' show strings; Td, TD and T* move the cursor and become spaces.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeLiterals(&sb, line)
		case bytes.HasSuffix(line, []byte("'")):
			sb.WriteByte('\n')
			writeLiterals(&sb, line)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			sb.WriteByte(' ')
		}
	}
	return collapsePrintable(sb.String())
}

func writeLiterals(sb *strings.Builder, line []byte) {
	for _, m := range pdfLiteralRe.FindAllSubmatch(line, -1) {
		sb.WriteString(unescapePDFLiteral(m[1]))
	}
}

var pdfEscapes = map[byte]byte{'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f'}

// unescapePDFLiteral resolves backslash escapes, including 1-3 digit octal codes.
func unescapePDFLiteral(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			out = append(out, c)
			continue
		}
		i++
		c = raw[i]
		if esc, ok := pdfEscapes[c]; ok {
			out = append(out, esc)
			continue
		}
		if c < '0' || c > '7' {
			out = append(out, c)
			continue
		}
		val := int(c - '0')
		for n := 1; n < 3 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
			i++
			val = val*8 + int(raw[i]-'0')
		}
		out = append(out, byte(val))
	}
	return string(out)
}

// collapsePrintable drops non-printable runes and collapses whitespace.
func collapsePrintable(text string) string {
	return strings.Join(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	}), " ")
}
