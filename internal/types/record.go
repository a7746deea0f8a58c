// Package types defines the data model shared across the research pipeline.
package types

// SourceGoogleKG tags results produced by the knowledge-graph resolver.
const SourceGoogleKG = "googlekg"

// CompanyQuery is the immutable input to a research run: the display name of
// the company as the user typed it.
type CompanyQuery struct {
	Name string `json:"name"`
}

// ResolvedCompany holds what the knowledge-graph resolver learned about a
// company. Every field may be empty; the zero value plus the source tag is the
// well-defined "not found" state, not an error.
type ResolvedCompany struct {
	Domain string `json:"domain"`
	Logo   string `json:"logo"`
	Brief  string `json:"brief"`
	Source string `json:"source"`
}

// NeutralResolvedCompany returns the "not found" resolver value.
func NeutralResolvedCompany() ResolvedCompany {
	return ResolvedCompany{Source: SourceGoogleKG}
}

// Citation points at a source URL. N is the citation's 1-based position in
// the list it was extracted from; numbering is always dense.
type Citation struct {
	URL string `json:"url"`
	N   int    `json:"n"`
}

// SearchInsight is the generative web-search output: a prose answer and the
// citations backing it. The neutral value has an empty answer and no
// citations.
type SearchInsight struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// HomepageSnapshot captures the title and description of a company's homepage.
// Both fields may be empty when the page could not be fetched or parsed.
type HomepageSnapshot struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ResearchRecord is the merged aggregate of all data sources for one company.
// It is constructed once by the aggregator, never mutated, and is the sole
// input to the synthesizer. Citations is a flattened copy of Sonar.Citations
// so the synthesis prompt can reference them directly.
type ResearchRecord struct {
	Company   string           `json:"company"`
	Resolver  ResolvedCompany  `json:"resolver"`
	TechStack []string         `json:"tech_stack"`
	Sonar     SearchInsight    `json:"sonar"`
	Homepage  HomepageSnapshot `json:"homepage"`
	Citations []Citation       `json:"citations"`
}

// Insight is the final synthesized briefing. When synthesis fails at every
// fallback level, Pretty holds a descriptive error string and Citations is
// empty; that is a valid terminal value, not a failure.
type Insight struct {
	Pretty    string     `json:"pretty"`
	Citations []Citation `json:"citations"`
}
