package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/deepdive/internal/types"
)

const (
	headerWidth  = 60
	sourcesWidth = 40
)

// Printer renders pipeline output for human consumption.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer that writes to the given writer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// PrintReport writes the final briefing: a header naming the company, the
// synthesized text, and a numbered source list when citations are present.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReport(company string, insight types.Insight) {
	rule := strings.Repeat("=", headerWidth)

	fmt.Fprintf(p.out, "\n%s\n", rule)
	fmt.Fprintf(p.out, "SALES INTELLIGENCE: %s\n", strings.ToUpper(company))
	fmt.Fprintf(p.out, "%s\n", rule)

	pretty := insight.Pretty
	if pretty == "" {
		pretty = "No insights generated"
	}
	fmt.Fprintln(p.out, pretty)

	if len(insight.Citations) > 0 {
		fmt.Fprintf(p.out, "\n%s\n", strings.Repeat("-", sourcesWidth))
		fmt.Fprintln(p.out, "SOURCES:")
		for _, citation := range insight.Citations {
			fmt.Fprintf(p.out, "[%d] %s\n", citation.N, citation.URL)
		}
	}

	fmt.Fprintf(p.out, "\n%s\n", rule)
}

// PrintRecordSummary writes a short verbose-mode digest of the merged record
// before it is handed to the synthesizer.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecordSummary(record *types.ResearchRecord) {
	if record == nil {
		return
	}

	fmt.Fprintf(p.out, "Company:      %s\n", record.Company)
	fmt.Fprintf(p.out, "Domain:       %s\n", valueOrDash(record.Resolver.Domain))
	fmt.Fprintf(p.out, "Brief:        %s\n", valueOrDash(truncate(record.Resolver.Brief, 80)))
	fmt.Fprintf(p.out, "Tech stack:   %d technologies\n", len(record.TechStack))
	if len(record.TechStack) > 0 {
		fmt.Fprintf(p.out, "              %s\n", strings.Join(record.TechStack, ", "))
	}
	fmt.Fprintf(p.out, "Homepage:     %s\n", valueOrDash(record.Homepage.Title))
	fmt.Fprintf(p.out, "Search:       %d chars, %d citations\n", len(record.Sonar.Answer), len(record.Citations))
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
