package matcher

import (
	"sort"

	"policy-reconciliation-service/internal/aggregate"
)

// PolicyIndex maps each policy number to the documents it appears in,
// used to derive candidate document pairs without comparing every policy
// set against every other.
type PolicyIndex struct {
	documents []string
	byPolicy  map[string][]string
}

// NewPolicyIndex builds an index over the given per-document aggregates.
// Documents are traversed in sorted-name order so index contents, and
// everything derived from them, are deterministic.
func NewPolicyIndex(aggregates map[string]*aggregate.DocumentAggregates) *PolicyIndex {
	idx := &PolicyIndex{
		byPolicy: make(map[string][]string),
	}

	idx.documents = make([]string, 0, len(aggregates))
	for document := range aggregates {
		idx.documents = append(idx.documents, document)
	}
	sort.Strings(idx.documents)

	for _, document := range idx.documents {
		for policy := range aggregates[document].PolicySet() {
			idx.byPolicy[policy] = append(idx.byPolicy[policy], document)
		}
	}

	return idx
}

// Documents returns the indexed document names in sorted order
func (idx *PolicyIndex) Documents() []string {
	return idx.documents
}

// SharedPolicies returns the policy numbers present in both documents,
// sorted.
func (idx *PolicyIndex) SharedPolicies(a, b string) []string {
	var shared []string
	for policy, docs := range idx.byPolicy {
		foundA, foundB := false, false
		for _, d := range docs {
			if d == a {
				foundA = true
			}
			if d == b {
				foundB = true
			}
		}
		if foundA && foundB {
			shared = append(shared, policy)
		}
	}
	sort.Strings(shared)
	return shared
}
