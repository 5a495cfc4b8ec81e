// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/content-curator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// PrintIntent outputs the extracted search intent.
func (p *Printer) PrintIntent(intent *types.SearchIntent) {
	if intent == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Domain:   %s\n", intent.Domain))
	sb.WriteString(fmt.Sprintf("Level:    %s\n", intent.TargetLevel))
	sb.WriteString("\n")

	writeList := func(label string, values []string) {
		if len(values) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", label, strings.Join(values, ", ")))
	}
	writeList("Primary", intent.PrimaryKeywords)
	writeList("Secondary", intent.SecondaryKeywords)
	writeList("Excluded", intent.ExclusionKeywords)
	writeList("Stack", intent.TechnicalStack)

	p.printBox("SEARCH INTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a package summary followed by its top entries.
func (p *Printer) PrintResult(result *types.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Package #%d: %s\n", result.PackageID, result.PackageName))
	if result.Degraded {
		sb.WriteString("⚠ No reason passed verification; all candidates kept\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Contents: %d\n", result.Summary.TotalRecommended))
	sb.WriteString(fmt.Sprintf("Fee:      %d원\n", result.Summary.TotalFee))
	sb.WriteString(fmt.Sprintf("Sessions: %d\n", result.Summary.TotalSessions))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", result.Summary.EstimatedDuration))
	sb.WriteString(fmt.Sprintf("Recent:   %d%%\n", result.Summary.LatestContentRatio))
	sb.WriteString(fmt.Sprintf("Path:     %d foundation / %d intermediate / %d advanced\n",
		len(result.LearningPath.Foundation),
		len(result.LearningPath.Intermediate),
		len(result.LearningPath.Advanced)))
	sb.WriteString("\n")

	count := min(len(result.SelectedContents), maxItemsToShow)
	for i := 0; i < count; i++ {
		sc := result.SelectedContents[i]
		mark := "✓"
		if !sc.Verified {
			mark = "?"
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s\n", sc.Order, mark, sc.Title))
		sb.WriteString(fmt.Sprintf("   Score: %d  Relevance: %d/10\n", sc.Score, sc.RelevanceScore))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(result.SelectedContents) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more contents", len(result.SelectedContents)-maxItemsToShow))
	}

	p.printBox("RECOMMENDED PACKAGE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMetrics outputs the per-stage item counts as a funnel.
func (p *Printer) PrintMetrics(m types.PipelineMetrics) {
	rows := []struct {
		label string
		count int
	}{
		{"1 intent keywords", m.Stage1Keywords},
		{"2 hard filter", m.Stage2Filtered},
		{"3 hybrid score", m.Stage3Scored},
		{"4 relevance", m.Stage4Validated},
		{"5 grounded", m.Stage5Grounded},
		{"6 verified", m.Stage6Verified},
		{"7 final", m.Stage7Final},
	}

	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-20s %5d\n", r.label, r.count))
	}
	p.printBox("PIPELINE FUNNEL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintError outputs a structured recommendation failure.
func (p *Printer) PrintError(recErr *types.RecommendationError) {
	if recErr == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Stage: %s\n", recErr.Stage))
	sb.WriteString(recErr.Message + "\n")
	sb.WriteString(recErr.Suggestion + "\n")

	if len(recErr.Alternatives) > 0 {
		sb.WriteString("\n")
		for _, alt := range recErr.Alternatives {
			sb.WriteString(fmt.Sprintf("  • %s\n", alt))
		}
	}

	if len(recErr.Candidates) > 0 {
		sb.WriteString(fmt.Sprintf("\nCandidates for manual review (%d):\n", len(recErr.Candidates)))
		count := min(len(recErr.Candidates), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := recErr.Candidates[i]
			sb.WriteString(fmt.Sprintf("  #%d %s\n", c.ID, c.Title))
		}
		if len(recErr.Candidates) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(recErr.Candidates)-maxItemsToShow))
		}
	}

	p.printBox("NO RECOMMENDATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPackage outputs a persisted package with all of its items.
func (p *Printer) PrintPackage(pkg *types.Package) {
	if pkg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#%d %s [%s]\n", pkg.ID, pkg.Name, pkg.Status))
	if pkg.TargetCompany != "" || pkg.TargetGroup != "" {
		sb.WriteString(fmt.Sprintf("For: %s %s\n", pkg.TargetCompany, pkg.TargetGroup))
	}
	if !pkg.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Created: %s\n", pkg.CreatedAt.Format("2006-01-02 15:04")))
	}
	sb.WriteString("\n")

	for i, item := range pkg.Items {
		sb.WriteString(fmt.Sprintf("%d. content #%d (score %d)\n", item.Order, item.ContentID, item.Score))
		sb.WriteString(fmt.Sprintf("   %s\n", item.Reason))
		if i < len(pkg.Items)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PACKAGE", strings.TrimSuffix(sb.String(), "\n"))
}
