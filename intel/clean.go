package intel

import (
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// cleaner turns feed markup into plain text safe to show and score.
type cleaner struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
	md     *converter.Converter
}

func newCleaner() *cleaner {
	return &cleaner{
		strict: bluemonday.StrictPolicy(),
		ugc:    bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// title strips all markup and collapses whitespace.
func (c *cleaner) title(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(c.strict.Sanitize(s))), " ")
}

// description sanitizes HTML and renders it as markdown. It falls back to
// stripped text when conversion fails or yields nothing.
func (c *cleaner) description(s string, link string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	fallback := c.title(s)
	safe := c.ugc.Sanitize(s)
	out, err := c.md.ConvertString(safe, converter.WithDomain(link))
	if err != nil || strings.TrimSpace(out) == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}
