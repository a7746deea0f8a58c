// Package research orchestrates the multi-source fetch-and-merge pipeline:
// resolve the company first, then query the domain-dependent sources
// concurrently, and merge everything into one immutable record.
package research

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/deepdive/internal/types"
)

// Resolver turns a company name into domain/logo/brief.
type Resolver interface {
	Lookup(ctx context.Context, company string) types.ResolvedCompany
}

// TechStackLookup lists the technologies detected on a domain.
type TechStackLookup interface {
	Lookup(ctx context.Context, domain string) []string
}

// Searcher answers the fixed company question with citations.
type Searcher interface {
	Search(ctx context.Context, company, domain string) types.SearchInsight
}

// Snapshotter captures the company homepage.
type Snapshotter interface {
	Snapshot(ctx context.Context, domain string) types.HomepageSnapshot
}

// ProgressFunc receives one-line status updates as the pipeline advances.
type ProgressFunc func(message string)

// Aggregator runs the source adapters and merges their outputs. The adapters
// are total functions, so the aggregator adds no error handling around them;
// only a violated adapter contract (a panic) escapes.
type Aggregator struct {
	resolver   Resolver
	techstack  TechStackLookup
	searcher   Searcher
	homepage   Snapshotter
	onProgress ProgressFunc
	log        *zap.Logger
}

// New builds an Aggregator. onProgress may be nil.
func New(resolver Resolver, techstack TechStackLookup, searcher Searcher, homepage Snapshotter, onProgress ProgressFunc, log *zap.Logger) *Aggregator {
	return &Aggregator{
		resolver:   resolver,
		techstack:  techstack,
		searcher:   searcher,
		homepage:   homepage,
		onProgress: onProgress,
		log:        log,
	}
}

// Run executes one research pass for the company and returns the merged
// record. The resolver completes first so the domain-dependent adapters can
// use its result; those then run as concurrent siblings. When no domain was
// resolved, the tech-stack and homepage adapters are bypassed entirely rather
// than invoked with an empty argument.
func (a *Aggregator) Run(ctx context.Context, query types.CompanyQuery) (*types.ResearchRecord, error) {
	a.progress("Resolving company info...")
	resolved := a.resolver.Lookup(ctx, query.Name)

	domain := resolved.Domain
	if domain != "" {
		a.progress(fmt.Sprintf("Found company domain: %s", domain))
	} else {
		a.progress("No domain found for company")
	}

	var (
		techStack []string
		insight   types.SearchInsight
		snapshot  types.HomepageSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	if domain == "" {
		a.log.Debug("skipping domain-dependent lookups", zap.String("company", query.Name))
	} else {
		a.progress(fmt.Sprintf("Analyzing tech stack for %s...", domain))
		g.Go(func() error {
			techStack = a.techstack.Lookup(gctx, domain)
			return nil
		})
		g.Go(func() error {
			snapshot = a.homepage.Snapshot(gctx, domain)
			return nil
		})
	}
	a.progress("Searching for company insights...")
	g.Go(func() error {
		insight = a.searcher.Search(gctx, query.Name, domain)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.progress(fmt.Sprintf("Research complete: %d technologies, %d citations",
		len(techStack), len(insight.Citations)))

	citations := make([]types.Citation, len(insight.Citations))
	copy(citations, insight.Citations)

	return &types.ResearchRecord{
		Company:   query.Name,
		Resolver:  resolved,
		TechStack: techStack,
		Sonar:     insight,
		Homepage:  snapshot,
		Citations: citations,
	}, nil
}

func (a *Aggregator) progress(message string) {
	if a.onProgress != nil {
		a.onProgress(message)
	}
}
