package tables

import (
	"testing"

	"policy-reconciliation-service/internal/models"
)

func tok(text string, x, y float64) models.Token {
	return models.Token{Text: text, X0: x, Y0: y, X1: x + 30, Y1: y + 10, Page: 1}
}

func TestClusterRowsGroupsByVerticalProximity(t *testing.T) {
	tokens := []models.Token{
		tok("b", 200, 101),
		tok("a", 50, 100),
		tok("c", 50, 140),
		tok("d", 200, 142),
	}

	rows := ClusterRows(tokens, 4)
	if len(rows) != 2 {
		t.Fatalf("ClusterRows() produced %d rows, want 2", len(rows))
	}

	if got := len(rows[0].Tokens); got != 2 {
		t.Errorf("first row has %d tokens, want 2", got)
	}
	if rows[0].Tokens[0].Text != "a" || rows[0].Tokens[1].Text != "b" {
		t.Errorf("first row tokens not in left-to-right order: %v", rows[0].Tokens)
	}
	if rows[1].Tokens[0].Text != "c" || rows[1].Tokens[1].Text != "d" {
		t.Errorf("second row tokens not in left-to-right order: %v", rows[1].Tokens)
	}
	if rows[0].Center >= rows[1].Center {
		t.Errorf("rows not ordered by center: %v >= %v", rows[0].Center, rows[1].Center)
	}
}

func TestClusterRowsSeparatesDistantTokens(t *testing.T) {
	tokens := []models.Token{
		tok("a", 50, 100),
		tok("b", 50, 120),
		tok("c", 50, 140),
	}

	rows := ClusterRows(tokens, 4)
	if len(rows) != 3 {
		t.Fatalf("ClusterRows() produced %d rows, want 3", len(rows))
	}
}

func TestClusterRowsDoesNotMutateInput(t *testing.T) {
	tokens := []models.Token{
		tok("b", 50, 140),
		tok("a", 50, 100),
	}
	first := tokens[0].Text

	ClusterRows(tokens, 4)

	if tokens[0].Text != first {
		t.Errorf("input slice was reordered: first token now %q", tokens[0].Text)
	}
}

func TestClusterRowsEmptyInput(t *testing.T) {
	if rows := ClusterRows(nil, 4); rows != nil {
		t.Errorf("ClusterRows(nil) = %v, want nil", rows)
	}
}

func TestClusterRowsRunningCenterDrift(t *testing.T) {
	// Each neighbor is within tolerance of the running mean, so a slow
	// vertical drift still lands in one row.
	tokens := []models.Token{
		tok("a", 50, 100),
		tok("b", 100, 102),
		tok("c", 150, 104),
	}

	rows := ClusterRows(tokens, 4)
	if len(rows) != 1 {
		t.Fatalf("ClusterRows() produced %d rows, want 1", len(rows))
	}
	if len(rows[0].Tokens) != 3 {
		t.Errorf("row has %d tokens, want 3", len(rows[0].Tokens))
	}
}
