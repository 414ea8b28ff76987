// Package aggregate folds classified table rows into per-document,
// per-policy premium totals. Aggregation is a plain sum, so it is
// associative and order-independent: the total for a policy equals the sum
// of every record carrying that policy number across all pages and tables
// of the document.
package aggregate

import (
	"sort"

	"policy-reconciliation-service/internal/classify"
	"policy-reconciliation-service/internal/models"
	"policy-reconciliation-service/internal/tables"

	"github.com/shopspring/decimal"
)

// ExtractRecords reads (policy number, premium) pairs from the classified
// columns of a reconstructed table. Policy numbers go through the injected
// normalization; rows whose normalized policy number is empty are
// discarded. Premium cells parse leniently, with unparseable values
// becoming zero.
func ExtractRecords(t *tables.Table, roles classify.Roles, normalize models.NormalizeFunc) []models.PolicyRecord {
	if normalize == nil {
		normalize = models.DefaultNormalizer()
	}

	var records []models.PolicyRecord
	for row := range t.Rows {
		policy := normalize(t.Cell(row, roles.PolicyColumn))
		if policy == "" {
			continue
		}
		records = append(records, models.PolicyRecord{
			Document:     t.Document,
			Page:         t.Page,
			PolicyNumber: policy,
			Premium:      models.ParsePremium(t.Cell(row, roles.PremiumColumn)),
		})
	}
	return records
}

// DocumentAggregates holds the per-policy premium totals of one document.
type DocumentAggregates struct {
	Document string
	byPolicy map[string]*models.Aggregate
}

// NewDocumentAggregates creates an empty aggregate set for a document
func NewDocumentAggregates(document string) *DocumentAggregates {
	return &DocumentAggregates{
		Document: document,
		byPolicy: make(map[string]*models.Aggregate),
	}
}

// Build folds policy records into a fresh aggregate set for the given
// document. Every aggregate starts unbalanced.
func Build(document string, records []models.PolicyRecord) *DocumentAggregates {
	da := NewDocumentAggregates(document)
	for _, rec := range records {
		da.Add(rec)
	}
	return da
}

// Add folds one record into the aggregate set
func (da *DocumentAggregates) Add(rec models.PolicyRecord) {
	agg, ok := da.byPolicy[rec.PolicyNumber]
	if !ok {
		agg = &models.Aggregate{
			Document:     da.Document,
			PolicyNumber: rec.PolicyNumber,
			PremiumTotal: decimal.Zero,
		}
		da.byPolicy[rec.PolicyNumber] = agg
	}
	agg.PremiumTotal = agg.PremiumTotal.Add(rec.Premium)
}

// Get returns the aggregate for a policy number, or nil when absent
func (da *DocumentAggregates) Get(policyNumber string) *models.Aggregate {
	return da.byPolicy[policyNumber]
}

// Len returns the number of distinct policy numbers in the document
func (da *DocumentAggregates) Len() int {
	return len(da.byPolicy)
}

// PolicySet returns the set of policy numbers present in the document
func (da *DocumentAggregates) PolicySet() map[string]struct{} {
	set := make(map[string]struct{}, len(da.byPolicy))
	for policy := range da.byPolicy {
		set[policy] = struct{}{}
	}
	return set
}

// All returns the document's aggregates ordered by policy number, so
// reports and summaries are deterministic.
func (da *DocumentAggregates) All() []*models.Aggregate {
	all := make([]*models.Aggregate, 0, len(da.byPolicy))
	for _, agg := range da.byPolicy {
		all = append(all, agg)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].PolicyNumber < all[j].PolicyNumber
	})
	return all
}
