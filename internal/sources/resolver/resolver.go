// Package resolver wraps the Google Knowledge Graph search API to resolve a
// company name into a domain, logo, and short description. The adapter is a
// total function: every failure mode degrades to the neutral "not found"
// value and nothing escapes its boundary.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/kgsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/fetch"
	"github.com/jonathan/deepdive/internal/retry"
	"github.com/jonathan/deepdive/internal/types"
)

// entityType restricts knowledge-graph matches to organizations.
const entityType = "Organization"

// Client performs knowledge-graph lookups. A Client built without an API key
// returns the neutral value from every Lookup without calling out.
type Client struct {
	svc       *kgsearch.Service
	timeout   time.Duration
	retryOpts []retry.Option
	log       *zap.Logger
}

// New builds the resolver. Extra client options are accepted so tests can
// point the service at a local endpoint. A missing credential or a service
// construction failure yields a Client that always resolves to neutral.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...option.ClientOption) *Client {
	c := &Client{
		timeout: cfg.LookupTimeout,
		retryOpts: []retry.Option{
			retry.WithMaxAttempts(cfg.RetryMaxAttempts),
			retry.WithBaseDelay(cfg.RetryBaseDelay),
			retry.WithRetryIf(isRetryable),
		},
		log: log,
	}

	if cfg.GoogleKGAPIKey == "" {
		log.Debug("no knowledge graph API key configured; resolver disabled")
		return c
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(cfg.GoogleKGAPIKey)}, opts...)
	svc, err := kgsearch.NewService(ctx, clientOpts...)
	if err != nil {
		log.Warn("failed to create knowledge graph service", zap.Error(err))
		return c
	}
	c.svc = svc
	return c
}

// Lookup resolves a company name. An empty name, missing credential, or any
// call/parsing failure returns the neutral ResolvedCompany.
func (c *Client) Lookup(ctx context.Context, company string) types.ResolvedCompany {
	neutral := types.NeutralResolvedCompany()

	company = strings.TrimSpace(company)
	if c.svc == nil || company == "" {
		return neutral
	}

	resp, err := retry.Do(ctx, func(ctx context.Context) (*kgsearch.SearchResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.svc.Entities.Search().
			Query(company).
			Limit(1).
			Types(entityType).
			Context(callCtx).
			Do()
	}, c.retryOpts...)
	if err != nil {
		c.log.Warn("knowledge graph lookup failed", zap.String("company", company), zap.Error(err))
		return neutral
	}

	resolved := parseResponse(resp)
	c.log.Debug("company resolved",
		zap.String("company", company),
		zap.String("domain", resolved.Domain))
	return resolved
}

// parseResponse extracts the fields of interest from the first (and only
// requested) knowledge-graph item. The item list is schemaless JSON-LD, so
// extraction goes through gjson paths with empty-string defaults.
func parseResponse(resp *kgsearch.SearchResponse) types.ResolvedCompany {
	neutral := types.NeutralResolvedCompany()
	if resp == nil || len(resp.ItemListElement) == 0 {
		return neutral
	}

	raw, err := json.Marshal(resp.ItemListElement)
	if err != nil {
		return neutral
	}

	item := gjson.GetBytes(raw, "0.result")
	if !item.Exists() {
		return neutral
	}

	brief := item.Get("description").String()
	if brief == "" {
		brief = item.Get("detailedDescription.articleBody").String()
	}

	return types.ResolvedCompany{
		Domain: fetch.NormalizeDomain(item.Get("url").String()),
		Logo:   item.Get("image.contentUrl").String(),
		Brief:  brief,
		Source: types.SourceGoogleKG,
	}
}

// isRetryable treats API status errors and transport-level failures as
// transient; anything else (bad request construction, decode failures) fails
// fast.
func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
