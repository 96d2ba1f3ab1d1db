package feed

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>SEBI Orders</title>
    <item>
      <title>SEBI issues penalty order</title>
      <link>https://example.org/o/1</link>
      <description><![CDATA[<p>Penalty for <b>non-compliance</b></p>]]></description>
      <pubDate>Mon, 02 Jun 2025 10:00:00 +0530</pubDate>
    </item>
    <item>
      <title>Circular on disclosures</title>
      <link>https://example.org/o/2</link>
      <content:encoded>Body only in content</content:encoded>
    </item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>RBI</title>
  <entry>
    <title>Enforcement action</title>
    <link rel="self" href="https://example.org/self"/>
    <link rel="alternate" href="https://example.org/a/1"/>
    <summary>Monetary penalty imposed</summary>
    <updated>2025-06-01T08:00:00Z</updated>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	entries, err := Parse([]byte(rssSample))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	e := entries[0]
	if e.Title != "SEBI issues penalty order" || e.Link != "https://example.org/o/1" {
		t.Errorf("entry = %+v", e)
	}
	if !strings.Contains(e.Description, "non-compliance") {
		t.Errorf("description = %q", e.Description)
	}
	if e.Published != "Mon, 02 Jun 2025 10:00:00 +0530" {
		t.Errorf("published = %q", e.Published)
	}
	// WHAT: content:encoded stands in for a missing description.
	if entries[1].Description != "Body only in content" {
		t.Errorf("fallback description = %q", entries[1].Description)
	}
}

func TestParse_Atom(t *testing.T) {
	entries, err := Parse([]byte(atomSample))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	e := entries[0]
	if e.Link != "https://example.org/a/1" {
		t.Errorf("link = %q, want the alternate link", e.Link)
	}
	if e.Description != "Monetary penalty imposed" {
		t.Errorf("description = %q", e.Description)
	}
	if e.Published != "2025-06-01T08:00:00Z" {
		t.Errorf("published = %q", e.Published)
	}
}

func TestParse_Charset(t *testing.T) {
	// WHAT: Non-UTF-8 feeds are decoded through their declared charset.
	// "Réserve" in ISO-8859-1.
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss><channel><item><title>R\xe9serve</title></item></channel></rss>")
	entries, err := Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Title != "Réserve" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("   ")); err == nil {
		t.Error("blank document accepted")
	}
	if _, err := Parse([]byte("<html><body>nope</body></html>")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("html: got %v, want ErrUnknownFormat", err)
	}
}

func TestParseTime(t *testing.T) {
	if got := ParseTime("Mon, 02 Jun 2025 10:00:00 +0530"); !got.Equal(time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC)) {
		t.Errorf("RFC1123Z = %v", got)
	}
	if got := ParseTime("2025-06-01T08:00:00Z"); got.Year() != 2025 {
		t.Errorf("RFC3339 = %v", got)
	}
	for _, s := range []string{"not a date", ""} {
		if got := ParseTime(s); !got.IsZero() {
			t.Errorf("ParseTime(%q) = %v, want zero", s, got)
		}
	}
}
