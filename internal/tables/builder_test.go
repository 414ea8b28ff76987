package tables

import (
	"reflect"
	"testing"

	"policy-reconciliation-service/internal/models"
)

func TestBuildTableAssignsCells(t *testing.T) {
	tokens := []models.Token{
		tok("Policy", 50, 100), tok("Premium", 200, 100),
		tok("POL123456", 50, 120), tok("$1,200.00", 200, 120),
		tok("XYZ999999", 50, 140), tok("$500.00", 200, 140),
	}
	columns := []float64{50, 200}

	table := BuildTable(tokens, columns, DefaultConfig())
	if table == nil {
		t.Fatal("BuildTable() = nil, want table")
	}

	wantHeaders := []string{"Policy", "Premium"}
	if !reflect.DeepEqual(table.Headers, wantHeaders) {
		t.Errorf("Headers = %v, want %v", table.Headers, wantHeaders)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(table.Rows))
	}
	if table.Cell(0, 0) != "POL123456" || table.Cell(0, 1) != "$1,200.00" {
		t.Errorf("first data row = %v", table.Rows[0])
	}
	if table.Cell(1, 0) != "XYZ999999" || table.Cell(1, 1) != "$500.00" {
		t.Errorf("second data row = %v", table.Rows[1])
	}
}

func TestBuildTableJoinsMultiTokenCells(t *testing.T) {
	tokens := []models.Token{
		tok("Name", 50, 100), tok("Amount", 200, 100),
		tok("John", 50, 120), tok("Smith", 85, 120), tok("9.99", 200, 120),
	}
	columns := []float64{50, 200}

	table := BuildTable(tokens, columns, DefaultConfig())
	if table == nil {
		t.Fatal("BuildTable() = nil, want table")
	}
	if got := table.Cell(0, 0); got != "John Smith" {
		t.Errorf("Cell(0,0) = %q, want %q", got, "John Smith")
	}
}

func TestBuildTableDropsDistantTokens(t *testing.T) {
	tokens := []models.Token{
		tok("h1", 50, 100), tok("h2", 200, 100),
		tok("a", 50, 120), tok("orphan", 125, 120), tok("b", 200, 120),
	}
	columns := []float64{50, 200}

	table := BuildTable(tokens, columns, DefaultConfig())
	if table == nil {
		t.Fatal("BuildTable() = nil, want table")
	}
	// "orphan" sits 75 from the nearest column, past the merge distance.
	if got := table.Cell(0, 0); got != "a" {
		t.Errorf("Cell(0,0) = %q, want %q", got, "a")
	}
	if got := table.Cell(0, 1); got != "b" {
		t.Errorf("Cell(0,1) = %q, want %q", got, "b")
	}
}

func TestBuildTableRequiresDataRows(t *testing.T) {
	tokens := []models.Token{
		tok("Policy", 50, 100), tok("Premium", 200, 100),
	}
	if table := BuildTable(tokens, []float64{50, 200}, DefaultConfig()); table != nil {
		t.Errorf("BuildTable() = %v, want nil for a header-only grid", table)
	}
}

func TestBuildTableEmptyInputs(t *testing.T) {
	if table := BuildTable(nil, []float64{50}, DefaultConfig()); table != nil {
		t.Errorf("BuildTable(nil tokens) = %v, want nil", table)
	}
	if table := BuildTable([]models.Token{tok("a", 50, 100)}, nil, DefaultConfig()); table != nil {
		t.Errorf("BuildTable(nil columns) = %v, want nil", table)
	}
}

func TestUniqueHeaders(t *testing.T) {
	got := uniqueHeaders([]string{"Policy", "", "Policy", " Premium "})
	want := []string{"Policy", "Col_1", "Policy_1", "Premium"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqueHeaders() = %v, want %v", got, want)
	}
}

func TestCellOutOfRange(t *testing.T) {
	table := &Table{Rows: [][]string{{"a"}}}
	if got := table.Cell(1, 0); got != "" {
		t.Errorf("Cell(1,0) = %q, want empty", got)
	}
	if got := table.Cell(0, 5); got != "" {
		t.Errorf("Cell(0,5) = %q, want empty", got)
	}
	if got := table.Cell(-1, 0); got != "" {
		t.Errorf("Cell(-1,0) = %q, want empty", got)
	}
}

func TestReconstructTables(t *testing.T) {
	region := models.Region{X0: 0, Y0: 0, X1: 400, Y1: 400}
	good := RegionTokens{
		Document: "statement",
		Page:     1,
		Region:   region,
		Tokens: []models.Token{
			tok("Policy", 50, 100), tok("Premium", 200, 100),
			tok("POL123456", 50, 120), tok("100.00", 200, 120),
			tok("XYZ999999", 50, 140), tok("200.00", 200, 140),
		},
	}
	// No x position recurs, so no columns and no table.
	bad := RegionTokens{
		Document: "statement",
		Page:     2,
		Region:   region,
		Tokens: []models.Token{
			tok("a", 50, 100), tok("b", 120, 130), tok("c", 260, 160),
		},
	}

	result := ReconstructTables([]RegionTokens{good, bad}, DefaultConfig())
	if len(result) != 1 {
		t.Fatalf("ReconstructTables() returned %d tables, want 1", len(result))
	}
	if result[0].Document != "statement" || result[0].Page != 1 {
		t.Errorf("table identity = %s p%d, want statement p1", result[0].Document, result[0].Page)
	}
	if result[0].Region != region {
		t.Errorf("table region = %v, want %v", result[0].Region, region)
	}
}

func TestTokensInRegion(t *testing.T) {
	region := models.Region{X0: 100, Y0: 100, X1: 300, Y1: 300}
	tokens := []models.Token{
		tok("in", 150, 150),
		tok("out", 400, 150),
	}

	inside := TokensInRegion(tokens, region)
	if len(inside) != 1 || inside[0].Text != "in" {
		t.Errorf("TokensInRegion() = %v, want the inside token only", inside)
	}
}

func TestPageRegion(t *testing.T) {
	tokens := []models.Token{
		tok("a", 50, 100),
		tok("b", 200, 300),
	}

	region := PageRegion(tokens)
	want := models.Region{X0: 50, Y0: 100, X1: 230, Y1: 310}
	if region != want {
		t.Errorf("PageRegion() = %v, want %v", region, want)
	}

	if empty := PageRegion(nil); empty != (models.Region{}) {
		t.Errorf("PageRegion(nil) = %v, want zero region", empty)
	}
}
