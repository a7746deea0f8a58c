// Package homepage snapshots a company's homepage: its title and meta
// description give the synthesizer the company's own words about itself.
// Client-rendered pages can optionally go through a headless browser first.
// Failures degrade to the neutral (empty) snapshot.
package homepage

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/fetch"
	"github.com/jonathan/deepdive/internal/retry"
	"github.com/jonathan/deepdive/internal/types"
)

// Client fetches homepage snapshots.
type Client struct {
	scheme     string
	useBrowser bool
	timeout    time.Duration
	http       *http.Client
	retryOpts  []retry.Option
	log        *zap.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithBrowser enables headless-browser rendering before the plain GET.
func WithBrowser() Option {
	return func(c *Client) { c.useBrowser = true }
}

// WithScheme overrides the URL scheme; tests use plain HTTP.
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

// New builds the homepage client.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		scheme:  "https",
		timeout: cfg.LookupTimeout,
		http:    fetch.NewClient(cfg.LookupTimeout),
		retryOpts: []retry.Option{
			retry.WithMaxAttempts(cfg.RetryMaxAttempts),
			retry.WithBaseDelay(cfg.RetryBaseDelay),
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot fetches https://<domain>/ and extracts the title and description.
// An empty domain short-circuits without a call; any failure returns the
// neutral snapshot.
func (c *Client) Snapshot(ctx context.Context, domain string) types.HomepageSnapshot {
	var neutral types.HomepageSnapshot

	domain = strings.TrimSpace(domain)
	if domain == "" {
		c.log.Debug("no domain provided; skipping homepage snapshot")
		return neutral
	}

	pageURL := c.scheme + "://" + domain + "/"
	html, err := c.pageHTML(ctx, pageURL)
	if err != nil {
		c.log.Warn("homepage fetch failed", zap.String("url", pageURL), zap.Error(err))
		return neutral
	}

	snapshot := parseSnapshot(html)
	c.log.Debug("homepage snapshot taken",
		zap.String("domain", domain),
		zap.String("title", snapshot.Title))
	return snapshot
}

// pageHTML retrieves the homepage HTML, via the headless browser when enabled
// (falling back to a plain GET if the browser fails).
func (c *Client) pageHTML(ctx context.Context, pageURL string) (string, error) {
	if c.useBrowser {
		html, err := fetch.RenderedHTML(ctx, pageURL, c.timeout)
		if err == nil {
			return html, nil
		}
		c.log.Debug("browser rendering failed, falling back to plain GET", zap.Error(err))
	}

	return retry.Do(ctx, func(ctx context.Context) (string, error) {
		return fetch.GetHTML(ctx, c.http, pageURL)
	}, c.retryOpts...)
}

// parseSnapshot pulls the page title and the first non-empty of the standard
// and Open Graph description tags. Unparseable HTML yields the neutral value.
func parseSnapshot(html string) types.HomepageSnapshot {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.HomepageSnapshot{}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	if strings.TrimSpace(description) == "" {
		description, _ = doc.Find(`meta[property="og:description"]`).First().Attr("content")
	}

	return types.HomepageSnapshot{
		Title:       title,
		Description: strings.TrimSpace(description),
	}
}
