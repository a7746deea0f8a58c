// Package search wraps the Perplexity Sonar generative web-search API. It
// asks one fixed question about the company and returns the answer with its
// citations, densely renumbered. Failures degrade to the neutral insight.
package search

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/fetch"
	"github.com/jonathan/deepdive/internal/prompts"
	"github.com/jonathan/deepdive/internal/retry"
	"github.com/jonathan/deepdive/internal/types"
)

const defaultEndpoint = "https://api.perplexity.ai/chat/completions"

// request is the Sonar chat-completions payload.
type request struct {
	Model               string    `json:"model"`
	Messages            []message `json:"messages"`
	Temperature         float64   `json:"temperature"`
	MaxCompletionTokens int       `json:"max_completion_tokens"`
	ReturnCitations     bool      `json:"return_citations"`
	SearchDomainFilter  []string  `json:"search_domain_filter,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client performs generative web searches about a company.
type Client struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	http      *http.Client
	retryOpts []retry.Option
	log       *zap.Logger
}

// Option customizes the client; used by tests to redirect the endpoint.
type Option func(*Client)

// WithEndpoint overrides the Sonar API URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// New builds the search client.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:    cfg.SonarAPIKey,
		endpoint:  defaultEndpoint,
		model:     cfg.SonarModel,
		maxTokens: cfg.SonarMaxTokens,
		http:      fetch.NewClient(cfg.SearchTimeout),
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

// Search asks what the company does, its sales channels, and recent news.
// The domain is optional context; an empty company name or missing credential
// returns the neutral insight without a call, as does every failure.
func (c *Client) Search(ctx context.Context, company, domain string) types.SearchInsight {
	var neutral types.SearchInsight

	company = strings.TrimSpace(company)
	if company == "" {
		c.log.Debug("no company name provided; skipping search")
		return neutral
	}
	if c.apiKey == "" {
		c.log.Debug("no Sonar API key configured; skipping search")
		return neutral
	}

	payload := request{
		Model:               c.model,
		Messages:            []message{{Role: "user", Content: buildPrompt(company, domain)}},
		Temperature:         0.2,
		MaxCompletionTokens: c.maxTokens,
		ReturnCitations:     true,
		SearchDomainFilter:  domainFilter(domain),
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	body, err := retry.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return fetch.PostJSON(ctx, c.http, c.endpoint, headers, payload)
	}, c.retryOpts...)
	if err != nil {
		c.log.Warn("search failed", zap.String("company", company), zap.Error(err))
		return neutral
	}

	insight := parseInsight(body)
	c.log.Debug("search complete",
		zap.String("company", company),
		zap.Int("citations", len(insight.Citations)))
	return insight
}

// buildPrompt fills the fixed question template, naming the domain when it is
// known and saying so when it is not.
func buildPrompt(company, domain string) string {
	domainContext := " (unknown domain)"
	if domain != "" {
		domainContext = " (" + domain + ")"
	}
	return prompts.Format(prompts.MustGet("search.json", "company_insights"), map[string]string{
		"Company":       company,
		"DomainContext": domainContext,
	})
}

// domainFilter scopes search results to the company's own site when the
// domain is known and omits the filter otherwise, leaving the search
// unrestricted.
func domainFilter(domain string) []string {
	if domain == "" {
		return nil
	}
	return []string{domain}
}

// parseInsight extracts the first choice's answer and the citation list.
// Citation entries may be objects with a url field or plain URL strings; only
// entries with a non-empty URL are kept, renumbered densely from 1.
func parseInsight(body []byte) types.SearchInsight {
	insight := types.SearchInsight{
		Answer: gjson.GetBytes(body, "choices.0.message.content").String(),
	}

	for _, entry := range gjson.GetBytes(body, "citations").Array() {
		url := entry.Get("url").String()
		if url == "" && entry.Type == gjson.String {
			url = entry.String()
		}
		if url == "" {
			continue
		}
		insight.Citations = append(insight.Citations, types.Citation{
			URL: url,
			N:   len(insight.Citations) + 1,
		})
	}

	return insight
}
