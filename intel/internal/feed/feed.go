// Package feed parses RSS 2.0 and Atom 1.0 documents.
//
// The format is chosen from the root element: <rss> or <rdf:RDF> for RSS,
// <feed> for Atom. Non-UTF-8 documents are decoded through their declared
// charset.
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Entry is one feed item.
type Entry struct {
	Title       string
	Link        string
	Description string
	Published   string
}

// ErrUnknownFormat is returned when the root element is neither RSS nor Atom.
var ErrUnknownFormat = errors.New("feed: unknown format (expected <rss> or <feed>)")

// Parse decodes an RSS or Atom document into its entries, in document order.
func Parse(data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("feed: empty document")
	}

	d := newDecoder(data)
	root, err := rootElement(d)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(root.Name.Local) {
	case "rss", "rdf":
		return decodeRSS(d, root)
	case "feed":
		return decodeAtom(d, root)
	default:
		return nil, ErrUnknownFormat
	}
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	d.Strict = false
	return d
}

func rootElement(d *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return xml.StartElement{}, ErrUnknownFormat
		}
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("feed: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Encoded     string `xml:"encoded"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"date"`
}

// decodeRSS walks the document collecting <item> elements. RSS 1.0 puts
// items beside the channel, RSS 2.0 inside it; both are found.
func decodeRSS(d *xml.Decoder, _ xml.StartElement) ([]Entry, error) {
	var out []Entry
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("feed: parse rss: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "item" {
			continue
		}
		var it rssItem
		if err := d.DecodeElement(&it, &se); err != nil {
			return nil, fmt.Errorf("feed: parse rss item: %w", err)
		}
		desc := it.Description
		if strings.TrimSpace(desc) == "" {
			desc = it.Encoded
		}
		out = append(out, Entry{
			Title:       strings.TrimSpace(it.Title),
			Link:        strings.TrimSpace(it.Link),
			Description: strings.TrimSpace(desc),
			Published:   firstNonBlank(it.PubDate, it.Date),
		})
	}
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

func decodeAtom(d *xml.Decoder, _ xml.StartElement) ([]Entry, error) {
	var out []Entry
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("feed: parse atom: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "entry" {
			continue
		}
		var e atomEntry
		if err := d.DecodeElement(&e, &se); err != nil {
			return nil, fmt.Errorf("feed: parse atom entry: %w", err)
		}
		out = append(out, Entry{
			Title:       strings.TrimSpace(e.Title),
			Link:        alternateLink(e.Links),
			Description: firstNonBlank(e.Summary, e.Content),
			Published:   firstNonBlank(e.Published, e.Updated),
		})
	}
}

// alternateLink prefers rel="alternate" (or no rel), then the first href.
func alternateLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var timeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses the date formats seen in RSS and Atom feeds. It returns
// the zero time when none match.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
