// Package matcher pairs documents that share policy numbers and decides,
// per policy, whether their premium totals balance.
//
// Pairing is pairwise, not transitive: every unordered pair of documents
// with a non-empty policy-set intersection is evaluated independently.
// The balance update is an OR-accumulation of the Balanced flag, so the
// order in which pairs are processed cannot un-balance a policy.
package matcher

import (
	"sort"

	"policy-reconciliation-service/internal/aggregate"
	"policy-reconciliation-service/pkg/errors"
	"policy-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// ErrNoRelatedDocuments is reported when no two input documents share a
// policy number. It is a terminal outcome, not a failure: there is simply
// nothing to reconcile.
var ErrNoRelatedDocuments = errors.New(
	errors.CategoryReconciliation,
	errors.CodeNoRelatedDocuments,
	"no documents shared any policy number",
)

// Pair is an unordered pair of related documents and the policy numbers
// they share.
type Pair struct {
	A      string   `json:"a"`
	B      string   `json:"b"`
	Shared []string `json:"shared_policies"`
}

// Summary provides aggregate statistics about a reconciliation pass
type Summary struct {
	TotalDocuments     int             `json:"total_documents"`
	RelatedPairs       int             `json:"related_pairs"`
	TotalPolicies      int             `json:"total_policies"`
	BalancedPolicies   int             `json:"balanced_policies"`
	UnbalancedPolicies int             `json:"unbalanced_policies"`
	TotalPremium       decimal.Decimal `json:"total_premium"`
}

// Result is the outcome of a reconciliation pass: the evaluated pairs,
// the (mutated) per-document aggregates and summary statistics.
type Result struct {
	Pairs      []Pair                                    `json:"pairs"`
	Aggregates map[string]*aggregate.DocumentAggregates `json:"-"`
	Summary    Summary                                   `json:"summary"`
}

// Engine runs the cross-document balance pass
type Engine struct {
	Config *MatchingConfig
	logger logger.Logger
}

// NewEngine creates a matching engine with the given configuration
func NewEngine(config *MatchingConfig) *Engine {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &Engine{
		Config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// PairDocuments returns every unordered pair of documents whose policy
// sets intersect, in deterministic (sorted document name) order.
func PairDocuments(aggregates map[string]*aggregate.DocumentAggregates) []Pair {
	idx := NewPolicyIndex(aggregates)
	documents := idx.Documents()

	var pairs []Pair
	for i := 0; i < len(documents); i++ {
		for j := i + 1; j < len(documents); j++ {
			shared := idx.SharedPolicies(documents[i], documents[j])
			if len(shared) == 0 {
				continue
			}
			pairs = append(pairs, Pair{A: documents[i], B: documents[j], Shared: shared})
		}
	}
	return pairs
}

// UpdateBalanced marks each side's aggregates balanced where the other
// document carries an equal total for the same policy number. A policy
// absent from one side stays unbalanced on the side it appears. The
// update only ever sets the flag, never clears it.
func (e *Engine) UpdateBalanced(a, b *aggregate.DocumentAggregates) {
	for _, agg := range a.All() {
		if other := b.Get(agg.PolicyNumber); other != nil {
			agg.Balanced = agg.Balanced || e.Config.equalTotals(agg.PremiumTotal, other.PremiumTotal)
		}
	}
	for _, agg := range b.All() {
		if other := a.Get(agg.PolicyNumber); other != nil {
			agg.Balanced = agg.Balanced || e.Config.equalTotals(agg.PremiumTotal, other.PremiumTotal)
		}
	}
}

// Reconcile runs pairing and the balance pass over all documents'
// aggregates, mutating Balanced flags in place. It returns
// ErrNoRelatedDocuments alongside the result when no pair of documents
// shares a policy number.
func (e *Engine) Reconcile(aggregates map[string]*aggregate.DocumentAggregates) (*Result, error) {
	pairs := PairDocuments(aggregates)

	for _, pair := range pairs {
		e.logger.WithFields(logger.Fields{
			"document_a": pair.A,
			"document_b": pair.B,
			"shared":     len(pair.Shared),
		}).Debug("Evaluating related pair")
		e.UpdateBalanced(aggregates[pair.A], aggregates[pair.B])
	}

	result := &Result{
		Pairs:      pairs,
		Aggregates: aggregates,
		Summary:    summarize(aggregates, pairs),
	}

	if len(pairs) == 0 {
		return result, ErrNoRelatedDocuments
	}
	return result, nil
}

// ParticipatingDocuments returns the sorted names of documents that appear
// in at least one related pair.
func (r *Result) ParticipatingDocuments() []string {
	set := make(map[string]struct{})
	for _, pair := range r.Pairs {
		set[pair.A] = struct{}{}
		set[pair.B] = struct{}{}
	}
	documents := make([]string, 0, len(set))
	for document := range set {
		documents = append(documents, document)
	}
	sort.Strings(documents)
	return documents
}

func summarize(aggregates map[string]*aggregate.DocumentAggregates, pairs []Pair) Summary {
	summary := Summary{
		TotalDocuments: len(aggregates),
		RelatedPairs:   len(pairs),
		TotalPremium:   decimal.Zero,
	}
	for _, da := range aggregates {
		for _, agg := range da.All() {
			summary.TotalPolicies++
			if agg.Balanced {
				summary.BalancedPolicies++
			} else {
				summary.UnbalancedPolicies++
			}
			summary.TotalPremium = summary.TotalPremium.Add(agg.PremiumTotal)
		}
	}
	return summary
}
