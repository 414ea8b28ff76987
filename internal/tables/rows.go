// Package tables reconstructs tabular structure from the (x,y) positions of
// text tokens on a page. The source documents expose no table metadata, so
// rows are inferred by vertical proximity, columns by x-positions that
// recur across rows, and cells by nearest-column assignment.
package tables

import (
	"math"
	"sort"

	"policy-reconciliation-service/internal/models"
)

// Row is an ordered set of tokens whose vertical centers lie within the
// row tolerance of the row's running center. Tokens are kept in
// left-to-right order.
type Row struct {
	Center float64
	Tokens []models.Token
}

// ClusterRows groups tokens into rows by vertical proximity. It is a pure
// function: the input slice is not modified and a fresh partition is
// returned, ordered by vertical center.
//
// The clustering is single-pass and greedy: tokens are visited in order of
// increasing y, and each joins the first existing row whose running center
// (the arithmetic mean of its members' centers, so it drifts as tokens are
// added) lies within tolerance, otherwise it starts a new row. No merge
// pass follows, so two rows that are each within tolerance of an
// intermediate token, but not of each other, can stay separate depending
// on visit order. This is a known approximation, accepted as-is.
func ClusterRows(tokens []models.Token, tolerance float64) []Row {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]models.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y0 < sorted[j].Y0
	})

	var rows []Row
	for _, tok := range sorted {
		center := tok.YCenter()
		placed := false
		for i := range rows {
			if math.Abs(center-rows[i].Center) <= tolerance {
				rows[i].Tokens = append(rows[i].Tokens, tok)
				rows[i].Center = meanCenter(rows[i].Tokens)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, Row{Center: center, Tokens: []models.Token{tok}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Center < rows[j].Center
	})
	for i := range rows {
		toks := rows[i].Tokens
		sort.SliceStable(toks, func(a, b int) bool {
			return toks[a].X0 < toks[b].X0
		})
	}

	return rows
}

func meanCenter(tokens []models.Token) float64 {
	var sum float64
	for _, tok := range tokens {
		sum += tok.YCenter()
	}
	return sum / float64(len(tokens))
}
