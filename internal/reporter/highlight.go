package reporter

import (
	"sort"

	"policy-reconciliation-service/internal/aggregate"
	"policy-reconciliation-service/internal/models"
	"policy-reconciliation-service/internal/tables"
)

// Highlight is one visual-marking instruction for the rendering
// collaborator: a bounding box on a page, plus the reason it is flagged.
type Highlight struct {
	Page         int     `json:"page"`
	X0           float64 `json:"x0"`
	Y0           float64 `json:"y0"`
	X1           float64 `json:"x1"`
	Y1           float64 `json:"y1"`
	PolicyNumber string  `json:"policy_number,omitempty"`
	Kind         string  `json:"kind"`
}

// Highlight kinds. Policy highlights mark unbalanced policy tokens;
// the other kinds are debug guides controlled by ReportConfig.
const (
	KindPolicy     = "policy"
	KindTableBox   = "table_box"
	KindColumnLine = "column_line"
)

// Discrepancies returns the policy numbers of a document's aggregates that
// are unbalanced with a positive premium total. Zero-premium aggregates
// (cancelled or void lines) are excluded even when never matched.
func Discrepancies(da *aggregate.DocumentAggregates) map[string]struct{} {
	flagged := make(map[string]struct{})
	for _, agg := range da.All() {
		if !agg.Balanced && agg.PremiumTotal.IsPositive() {
			flagged[agg.PolicyNumber] = struct{}{}
		}
	}
	return flagged
}

// IsFlagged reports whether a token's text names a flagged policy: the
// first policy-shaped substring of the text must be an exact member of
// the flagged set.
func IsFlagged(tokenText string, flagged map[string]struct{}) bool {
	policy := models.ExtractPolicyNumber(tokenText)
	if policy == "" {
		return false
	}
	_, ok := flagged[policy]
	return ok
}

// HighlightInstructions emits one highlight per token whose text matches a
// flagged policy number.
func HighlightInstructions(tokens []models.Token, flagged map[string]struct{}) []Highlight {
	var highlights []Highlight
	for _, tok := range tokens {
		if !IsFlagged(tok.Text, flagged) {
			continue
		}
		highlights = append(highlights, Highlight{
			Page:         tok.Page,
			X0:           tok.X0,
			Y0:           tok.Y0,
			X1:           tok.X1,
			Y1:           tok.Y1,
			PolicyNumber: models.ExtractPolicyNumber(tok.Text),
			Kind:         KindPolicy,
		})
	}
	return highlights
}

// TableGuides emits debug guides for a reconstructed table: the region box
// and a thin line at each inferred column x-position, per the config
// toggles.
func TableGuides(t *tables.Table, cfg *ReportConfig) []Highlight {
	var guides []Highlight
	if cfg.DrawTableBoxes {
		guides = append(guides, Highlight{
			Page: t.Page,
			X0:   t.Region.X0, Y0: t.Region.Y0,
			X1: t.Region.X1, Y1: t.Region.Y1,
			Kind: KindTableBox,
		})
	}
	if cfg.DrawColumnLines {
		for _, x := range t.Columns {
			guides = append(guides, Highlight{
				Page: t.Page,
				X0:   x, Y0: t.Region.Y0,
				X1: x + 1, Y1: t.Region.Y1,
				Kind: KindColumnLine,
			})
		}
	}
	return guides
}

// DocumentReport is the per-document discrepancy artifact: the flagged
// policy numbers and the highlight instructions for the rendering
// collaborator.
type DocumentReport struct {
	Document   string      `json:"document"`
	Flagged    []string    `json:"flagged_policies"`
	Highlights []Highlight `json:"highlights"`
}

// BuildDocumentReport assembles the discrepancy artifact for one document
// from its aggregates, its tokens and its reconstructed tables.
func BuildDocumentReport(
	da *aggregate.DocumentAggregates,
	tokens []models.Token,
	docTables []*tables.Table,
	cfg *ReportConfig,
) *DocumentReport {
	if cfg == nil {
		cfg = DefaultReportConfig()
	}

	flagged := Discrepancies(da)
	report := &DocumentReport{
		Document:   da.Document,
		Highlights: HighlightInstructions(tokens, flagged),
	}

	report.Flagged = make([]string, 0, len(flagged))
	for policy := range flagged {
		report.Flagged = append(report.Flagged, policy)
	}
	sort.Strings(report.Flagged)

	for _, t := range docTables {
		report.Highlights = append(report.Highlights, TableGuides(t, cfg)...)
	}

	return report
}
