package tables

import (
	"math"
	"sort"

	"policy-reconciliation-service/internal/models"
)

// DetectColumns infers stable column x-positions from the tokens of a
// candidate table region. Real table columns are the x-positions that
// repeat across rows; positional jitter is absorbed by rounding to the
// XRounding grid and ragged near-duplicates are merged.
//
// It returns a sorted slice of column left edges, or nil when no position
// recurs in enough rows to count as a column.
func DetectColumns(tokens []models.Token, cfg Config) []float64 {
	if len(tokens) == 0 {
		return nil
	}

	rows := ClusterRows(tokens, cfg.RowTolerance)

	counts := make(map[float64]int)
	for _, row := range rows {
		seen := make(map[float64]struct{})
		for _, tok := range row.Tokens {
			x := math.Round(tok.XLeft()/cfg.XRounding) * cfg.XRounding
			seen[x] = struct{}{}
		}
		for x := range seen {
			counts[x]++
		}
	}

	// A position must recur across a meaningful fraction of rows;
	// a single stray alignment is not a column.
	threshold := math.Max(2, float64(len(rows))*cfg.MinRowFrequency)

	var columns []float64
	for x, count := range counts {
		if float64(count) >= threshold {
			columns = append(columns, x)
		}
	}
	sort.Float64s(columns)

	// Merge near-duplicate columns left to right, replacing each pair
	// closer than the merge distance with its midpoint.
	var merged []float64
	for _, x := range columns {
		if len(merged) == 0 || x-merged[len(merged)-1] >= cfg.ColumnMergeDistance {
			merged = append(merged, x)
		} else {
			merged[len(merged)-1] = (merged[len(merged)-1] + x) / 2
		}
	}

	return merged
}
