// Package techstack wraps the BuiltWith technology-detection API. Given a
// domain it returns the distinct technology names in use, capped and in
// first-seen order. Like every source adapter it never returns an error:
// failures degrade to an empty list.
package techstack

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/fetch"
	"github.com/jonathan/deepdive/internal/retry"
)

// MaxTechnologies bounds the number of distinct names returned.
const MaxTechnologies = 10

const defaultEndpoint = "https://api.builtwith.com/v14/api.json"

// Client performs technology-stack lookups.
type Client struct {
	apiKey    string
	endpoint  string
	http      *http.Client
	retryOpts []retry.Option
	log       *zap.Logger
}

// Option customizes the client; used by tests to redirect the endpoint.
type Option func(*Client)

// WithEndpoint overrides the BuiltWith API URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// New builds the tech-stack client.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:   cfg.BuiltWithAPIKey,
		endpoint: defaultEndpoint,
		http:     fetch.NewClient(cfg.LookupTimeout),
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

// Lookup returns up to MaxTechnologies distinct technology names detected on
// the domain. An empty domain or missing credential short-circuits without a
// network call; every failure yields an empty list.
func (c *Client) Lookup(ctx context.Context, domain string) []string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		c.log.Debug("no domain provided; skipping tech stack lookup")
		return nil
	}
	if c.apiKey == "" {
		c.log.Debug("no BuiltWith API key configured; skipping tech stack lookup")
		return nil
	}

	query := url.Values{
		"KEY":    {c.apiKey},
		"LOOKUP": {domain},
	}
	body, err := retry.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return fetch.GetJSON(ctx, c.http, c.endpoint, query)
	}, c.retryOpts...)
	if err != nil {
		c.log.Warn("tech stack lookup failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}

	technologies := parseTechnologies(body)
	c.log.Debug("tech stack resolved",
		zap.String("domain", domain),
		zap.Int("count", len(technologies)))
	return technologies
}

// parseTechnologies walks the first result's first path and collects distinct
// technology names. Missing fields at any nesting level yield an empty list.
func parseTechnologies(body []byte) []string {
	entries := gjson.GetBytes(body, "Results.0.Result.Paths.0.Technologies")
	if !entries.IsArray() {
		return nil
	}

	var names []string
	seen := make(map[string]struct{})
	for _, entry := range entries.Array() {
		name := entry.Get("Name").String()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) >= MaxTechnologies {
			break
		}
	}
	return names
}
