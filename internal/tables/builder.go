package tables

import (
	"fmt"
	"math"
	"strings"

	"policy-reconciliation-service/internal/models"
)

// Table is a reconstructed 2-D grid of cell strings. The first clustered
// row supplies the header labels; Rows holds the data rows. Columns keeps
// the inferred column x-positions and Region the bounding box the table
// was reconstructed from, for downstream debug rendering.
type Table struct {
	Document string
	Page     int
	Headers  []string
	Rows     [][]string
	Columns  []float64
	Region   models.Region
}

// NumColumns returns the number of inferred columns
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Cell returns the cell at the given data row and column, or the empty
// string when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// RegionTokens is the token set of one candidate table region.
type RegionTokens struct {
	Document string
	Page     int
	Region   models.Region
	Tokens   []models.Token
}

// BuildTable assigns tokens to (row, column) cells. Rows are re-clustered
// without grid rounding; each token goes to the column with the nearest
// x-position, and is dropped when even the nearest column is farther than
// the merge distance. Cells are the space-joined concatenation of their
// tokens in left-to-right order.
//
// Returns nil when the grid has fewer than two rows: a header with no data
// rows is not a table.
func BuildTable(tokens []models.Token, columns []float64, cfg Config) *Table {
	if len(tokens) == 0 || len(columns) == 0 {
		return nil
	}

	rows := ClusterRows(tokens, cfg.RowTolerance)

	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([][]string, len(columns))
		for _, tok := range row.Tokens {
			closest, dist := nearestColumn(tok.XLeft(), columns)
			if dist < cfg.ColumnMergeDistance {
				cells[closest] = append(cells[closest], tok.Text)
			}
		}
		line := make([]string, len(columns))
		for i, cell := range cells {
			line[i] = strings.Join(cell, " ")
		}
		grid = append(grid, line)
	}

	if len(grid) < 2 {
		return nil
	}

	return &Table{
		Headers: uniqueHeaders(grid[0]),
		Rows:    grid[1:],
		Columns: columns,
	}
}

// ReconstructTables runs column detection and table building over each
// candidate region. Regions that yield no stable columns or no data rows
// are skipped; reconstruction failure is an absence of output, not an
// error.
func ReconstructTables(regions []RegionTokens, cfg Config) []*Table {
	var tables []*Table
	for _, region := range regions {
		columns := DetectColumns(region.Tokens, cfg)
		if len(columns) == 0 {
			continue
		}
		table := BuildTable(region.Tokens, columns, cfg)
		if table == nil {
			continue
		}
		table.Document = region.Document
		table.Page = region.Page
		table.Region = region.Region
		tables = append(tables, table)
	}
	return tables
}

// TokensInRegion filters a page's tokens down to those inside the region.
func TokensInRegion(tokens []models.Token, region models.Region) []models.Token {
	var inside []models.Token
	for _, tok := range tokens {
		if region.Contains(tok) {
			inside = append(inside, tok)
		}
	}
	return inside
}

// PageRegion returns a region covering every token on the page.
func PageRegion(tokens []models.Token) models.Region {
	if len(tokens) == 0 {
		return models.Region{}
	}
	r := models.Region{
		X0: math.Inf(1), Y0: math.Inf(1),
		X1: math.Inf(-1), Y1: math.Inf(-1),
	}
	for _, tok := range tokens {
		r.X0 = math.Min(r.X0, tok.X0)
		r.Y0 = math.Min(r.Y0, tok.Y0)
		r.X1 = math.Max(r.X1, tok.X1)
		r.Y1 = math.Max(r.Y1, tok.Y1)
	}
	return r
}

func nearestColumn(x float64, columns []float64) (int, float64) {
	closest := 0
	best := math.Abs(x - columns[0])
	for i := 1; i < len(columns); i++ {
		if d := math.Abs(x - columns[i]); d < best {
			best = d
			closest = i
		}
	}
	return closest, best
}

// uniqueHeaders trims header cells, fills empties with a positional
// fallback and disambiguates duplicates with an occurrence counter.
func uniqueHeaders(raw []string) []string {
	seen := make(map[string]int)
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Col_%d", i)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			headers[i] = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 0
			headers[i] = h
		}
	}
	return headers
}
