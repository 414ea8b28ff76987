// Package classify identifies the roles of reconstructed table columns:
// which column carries policy identifiers and which carries premium
// amounts. Both heuristics are content-based, independent and best-effort;
// when either fails the table is discarded and contributes no records.
package classify

import (
	"regexp"

	"policy-reconciliation-service/internal/models"
	"policy-reconciliation-service/internal/tables"

	"github.com/shopspring/decimal"
)

// Roles holds the classified column indexes of a table.
type Roles struct {
	PolicyColumn  int
	PremiumColumn int
}

var (
	currencyNoise = regexp.MustCompile(`[%\s$,]`)
	centsSuffix   = regexp.MustCompile(`\.\d{2}$`)
)

// MinUniquePolicies is the minimum number of distinct identifier matches a
// column needs to qualify as the policy column. A single recurring value
// is not evidence of an identifier column.
const MinUniquePolicies = 2

// FindPolicyColumn returns the index of the column with the most distinct
// policy-shaped values. Ties go to the leftmost column. The boolean is
// false when no column reaches MinUniquePolicies distinct matches.
func FindPolicyColumn(t *tables.Table) (int, bool) {
	best, bestCount := -1, 0
	for col := 0; col < t.NumColumns(); col++ {
		distinct := make(map[string]struct{})
		for row := range t.Rows {
			if policy := models.ExtractPolicyNumber(t.Cell(row, col)); policy != "" {
				distinct[policy] = struct{}{}
			}
		}
		if len(distinct) >= MinUniquePolicies && len(distinct) > bestCount {
			best, bestCount = col, len(distinct)
		}
	}
	return best, best >= 0
}

// FindPremiumColumn returns the index of the column most likely to carry
// premium amounts. A cell counts as currency-like only when, after
// stripping percent signs, whitespace, dollar signs and thousands
// separators, it still ends in a two-decimal fractional part; this keeps
// stray integers and percentages from being mistaken for money. Among
// columns with at least one such value the winner is the column with the
// largest maximum parsed value, amounts being the dominant numeric
// magnitude on these statements. Ties go to the leftmost column.
func FindPremiumColumn(t *tables.Table) (int, bool) {
	best := -1
	var bestMax decimal.Decimal
	for col := 0; col < t.NumColumns(); col++ {
		count := 0
		var max decimal.Decimal
		for row := range t.Rows {
			cleaned := currencyNoise.ReplaceAllString(t.Cell(row, col), "")
			if cleaned == "" || !centsSuffix.MatchString(cleaned) {
				continue
			}
			v, err := decimal.NewFromString(cleaned)
			if err != nil {
				continue
			}
			if count == 0 || v.GreaterThan(max) {
				max = v
			}
			count++
		}
		if count == 0 {
			continue
		}
		if best < 0 || max.GreaterThan(bestMax) {
			best, bestMax = col, max
		}
	}
	return best, best >= 0
}

// Classify runs both role heuristics on a table. The second return value
// is false when either heuristic fails, in which case the table must be
// discarded.
func Classify(t *tables.Table) (Roles, bool) {
	policyCol, ok := FindPolicyColumn(t)
	if !ok {
		return Roles{}, false
	}
	premiumCol, ok := FindPremiumColumn(t)
	if !ok {
		return Roles{}, false
	}
	return Roles{PolicyColumn: policyCol, PremiumColumn: premiumCol}, true
}
