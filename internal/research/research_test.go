package research

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/types"
)

type stubResolver struct {
	resolved types.ResolvedCompany
	calls    atomic.Int32
}

func (s *stubResolver) Lookup(_ context.Context, _ string) types.ResolvedCompany {
	s.calls.Add(1)
	return s.resolved
}

type stubTechStack struct {
	techs     []string
	calls     atomic.Int32
	gotDomain string
}

func (s *stubTechStack) Lookup(_ context.Context, domain string) []string {
	s.calls.Add(1)
	s.gotDomain = domain
	return s.techs
}

type stubSearcher struct {
	insight    types.SearchInsight
	calls      atomic.Int32
	gotCompany string
	gotDomain  string
}

func (s *stubSearcher) Search(_ context.Context, company, domain string) types.SearchInsight {
	s.calls.Add(1)
	s.gotCompany = company
	s.gotDomain = domain
	return s.insight
}

type stubSnapshotter struct {
	snapshot types.HomepageSnapshot
	calls    atomic.Int32
}

func (s *stubSnapshotter) Snapshot(_ context.Context, _ string) types.HomepageSnapshot {
	s.calls.Add(1)
	return s.snapshot
}

func resolvedAcme() types.ResolvedCompany {
	return types.ResolvedCompany{
		Domain: "acme.com",
		Logo:   "https://img.example/acme.png",
		Brief:  "Anvil manufacturer",
		Source: types.SourceGoogleKG,
	}
}

func TestRun_MergesAllSources(t *testing.T) {
	resolver := &stubResolver{resolved: resolvedAcme()}
	techstack := &stubTechStack{techs: []string{"Nginx", "React"}}
	searcher := &stubSearcher{insight: types.SearchInsight{
		Answer:    "Acme sells anvils. [1]",
		Citations: []types.Citation{{URL: "https://acme.com", N: 1}},
	}}
	homepage := &stubSnapshotter{snapshot: types.HomepageSnapshot{Title: "Acme Anvils"}}

	agg := New(resolver, techstack, searcher, homepage, nil, zap.NewNop())
	record, err := agg.Run(context.Background(), types.CompanyQuery{Name: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, "Acme", record.Company)
	assert.Equal(t, resolvedAcme(), record.Resolver)
	assert.Equal(t, []string{"Nginx", "React"}, record.TechStack)
	assert.Equal(t, "Acme sells anvils. [1]", record.Sonar.Answer)
	assert.Equal(t, "Acme Anvils", record.Homepage.Title)
	assert.Equal(t, []types.Citation{{URL: "https://acme.com", N: 1}}, record.Citations)

	assert.Equal(t, "acme.com", techstack.gotDomain)
	assert.Equal(t, "Acme", searcher.gotCompany)
	assert.Equal(t, "acme.com", searcher.gotDomain)
}

func TestRun_NoDomainBypassesDomainDependentSources(t *testing.T) {
	resolver := &stubResolver{resolved: types.NeutralResolvedCompany()}
	techstack := &stubTechStack{}
	searcher := &stubSearcher{insight: types.SearchInsight{Answer: "Little is known."}}
	homepage := &stubSnapshotter{}

	agg := New(resolver, techstack, searcher, homepage, nil, zap.NewNop())
	record, err := agg.Run(context.Background(), types.CompanyQuery{Name: "Obscure Co"})
	require.NoError(t, err)

	assert.Equal(t, int32(0), techstack.calls.Load())
	assert.Equal(t, int32(0), homepage.calls.Load())
	assert.Equal(t, int32(1), searcher.calls.Load())
	assert.Equal(t, "", searcher.gotDomain)

	assert.Empty(t, record.TechStack)
	assert.Equal(t, types.HomepageSnapshot{}, record.Homepage)
	assert.Equal(t, "Little is known.", record.Sonar.Answer)
}

func TestRun_ReportsProgress(t *testing.T) {
	var messages []string
	progress := func(message string) { messages = append(messages, message) }

	agg := New(
		&stubResolver{resolved: resolvedAcme()},
		&stubTechStack{techs: []string{"Nginx"}},
		&stubSearcher{insight: types.SearchInsight{Citations: []types.Citation{{URL: "https://acme.com", N: 1}}}},
		&stubSnapshotter{},
		progress,
		zap.NewNop(),
	)
	_, err := agg.Run(context.Background(), types.CompanyQuery{Name: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Resolving company info...",
		"Found company domain: acme.com",
		"Analyzing tech stack for acme.com...",
		"Searching for company insights...",
		"Research complete: 1 technologies, 1 citations",
	}, messages)
}

func TestRun_ProgressWhenNoDomain(t *testing.T) {
	var messages []string
	agg := New(
		&stubResolver{resolved: types.NeutralResolvedCompany()},
		&stubTechStack{},
		&stubSearcher{},
		&stubSnapshotter{},
		func(message string) { messages = append(messages, message) },
		zap.NewNop(),
	)
	_, err := agg.Run(context.Background(), types.CompanyQuery{Name: "Obscure Co"})
	require.NoError(t, err)

	assert.Contains(t, messages, "No domain found for company")
	assert.NotContains(t, messages, "Analyzing tech stack for ...")
}

func TestRun_CitationsAreAFlattenedCopy(t *testing.T) {
	insight := types.SearchInsight{
		Citations: []types.Citation{{URL: "https://a.example", N: 1}, {URL: "https://b.example", N: 2}},
	}
	agg := New(
		&stubResolver{resolved: resolvedAcme()},
		&stubTechStack{},
		&stubSearcher{insight: insight},
		&stubSnapshotter{},
		nil,
		zap.NewNop(),
	)
	record, err := agg.Run(context.Background(), types.CompanyQuery{Name: "Acme"})
	require.NoError(t, err)

	require.Equal(t, insight.Citations, record.Citations)

	record.Citations[0].URL = "mutated"
	assert.Equal(t, "https://a.example", record.Sonar.Citations[0].URL)
}
