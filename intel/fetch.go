package intel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/filingscan/intel/internal/feed"
)

// Fetcher retrieves the current items of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) ([]Item, error)
}

// FetcherConfig configures a FeedFetcher.
type FetcherConfig struct {
	// Timeout per request. Default: 20s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxBytes caps the response body. Default: 5MB.
	MaxBytes int64 `yaml:"max_bytes"`

	// MaxItems keeps only the first N entries of each feed. Default: 5.
	MaxItems int `yaml:"max_items"`

	// UserAgent sent with requests.
	UserAgent string `yaml:"user_agent"`

	// URLValidator runs on the feed URL and every redirect.
	// Default: ValidateURL.
	URLValidator func(string) error `yaml:"-"`

	// Client overrides the HTTP client. Its CheckRedirect is replaced.
	Client *http.Client `yaml:"-"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *FetcherConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 << 20
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 5
	}
	if c.UserAgent == "" {
		c.UserAgent = "filingscan/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = ValidateURL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// FeedFetcher fetches RSS and Atom feeds over HTTP.
type FeedFetcher struct {
	client *http.Client
	cfg    FetcherConfig
	clean  *cleaner
}

// NewFeedFetcher creates a FeedFetcher that validates every redirect hop.
func NewFeedFetcher(cfg FetcherConfig) *FeedFetcher {
	cfg.defaults()
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Client != nil {
		c := *cfg.Client
		client = &c
	}
	validate := cfg.URLValidator
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return fmt.Errorf("too many redirects (%d)", len(via))
		}
		if err := validate(req.URL.String()); err != nil {
			return fmt.Errorf("redirect blocked: %w", err)
		}
		return nil
	}
	return &FeedFetcher{client: client, cfg: cfg, clean: newCleaner()}
}

// Fetch downloads and parses src, returning at most MaxItems items with
// cleaned text. Items are not scored.
func (f *FeedFetcher) Fetch(ctx context.Context, src Source) ([]Item, error) {
	if err := f.cfg.URLValidator(src.URL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: new request: %w", src.Name, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: http %d", src.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", src.Name, err)
	}
	if int64(len(body)) > f.cfg.MaxBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", src.Name, f.cfg.MaxBytes)
	}

	entries, err := feed.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}
	if len(entries) > f.cfg.MaxItems {
		entries = entries[:f.cfg.MaxItems]
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{
			Source:      src.Name,
			Title:       f.clean.title(e.Title),
			Link:        e.Link,
			PublishedAt: feed.ParseTime(e.Published),
			Description: f.clean.description(e.Description, e.Link),
		})
	}
	f.cfg.Logger.Debug("intel: feed fetched", "source", src.Name, "items", len(items))
	return items, nil
}
