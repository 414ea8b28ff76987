package reporter

import (
	"reflect"
	"testing"

	"policy-reconciliation-service/internal/aggregate"
	"policy-reconciliation-service/internal/models"
	"policy-reconciliation-service/internal/tables"

	"github.com/shopspring/decimal"
)

func flaggedAggregates() *aggregate.DocumentAggregates {
	da := aggregate.NewDocumentAggregates("broker")
	da.Add(models.PolicyRecord{Document: "broker", Page: 1, PolicyNumber: "POL123456", Premium: decimal.RequireFromString("1200.00")})
	da.Add(models.PolicyRecord{Document: "broker", Page: 1, PolicyNumber: "XYZ999999", Premium: decimal.RequireFromString("499.99")})
	da.Add(models.PolicyRecord{Document: "broker", Page: 1, PolicyNumber: "VOID00001", Premium: decimal.Zero})
	da.Get("POL123456").Balanced = true
	return da
}

func TestDiscrepancies(t *testing.T) {
	flagged := Discrepancies(flaggedAggregates())

	if _, ok := flagged["XYZ999999"]; !ok {
		t.Error("unbalanced positive policy missing from discrepancies")
	}
	if _, ok := flagged["POL123456"]; ok {
		t.Error("balanced policy must not be flagged")
	}
	if _, ok := flagged["VOID00001"]; ok {
		t.Error("zero-premium policy must not be flagged")
	}
}

func TestIsFlagged(t *testing.T) {
	flagged := map[string]struct{}{"XYZ999999": {}}

	tests := []struct {
		text string
		want bool
	}{
		{"XYZ999999", true},
		{"  XYZ999999  ", true},
		{"policy XYZ999999 renewal", true},
		{"POL123456", false},
		{"premium", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsFlagged(tt.text, flagged); got != tt.want {
				t.Errorf("IsFlagged(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHighlightInstructions(t *testing.T) {
	flagged := map[string]struct{}{"XYZ999999": {}}
	tokens := []models.Token{
		{Text: "XYZ999999", X0: 50, Y0: 120, X1: 110, Y1: 130, Page: 1},
		{Text: "POL123456", X0: 50, Y0: 140, X1: 110, Y1: 150, Page: 1},
		{Text: "XYZ999999", X0: 50, Y0: 90, X1: 110, Y1: 100, Page: 2},
	}

	highlights := HighlightInstructions(tokens, flagged)
	if len(highlights) != 2 {
		t.Fatalf("HighlightInstructions() = %d highlights, want 2", len(highlights))
	}

	first := highlights[0]
	if first.Kind != KindPolicy {
		t.Errorf("Kind = %q, want %q", first.Kind, KindPolicy)
	}
	if first.PolicyNumber != "XYZ999999" {
		t.Errorf("PolicyNumber = %q, want XYZ999999", first.PolicyNumber)
	}
	if first.Page != 1 || first.X0 != 50 || first.Y1 != 130 {
		t.Errorf("highlight box = %+v, want the token's box", first)
	}
	if highlights[1].Page != 2 {
		t.Errorf("second highlight page = %d, want 2", highlights[1].Page)
	}
}

func TestTableGuides(t *testing.T) {
	table := &tables.Table{
		Document: "broker",
		Page:     1,
		Columns:  []float64{50, 200},
		Region:   models.Region{X0: 40, Y0: 90, X1: 400, Y1: 300},
	}

	t.Run("disabled by default", func(t *testing.T) {
		if guides := TableGuides(table, DefaultReportConfig()); len(guides) != 0 {
			t.Errorf("TableGuides() = %v, want none", guides)
		}
	})

	t.Run("boxes and lines", func(t *testing.T) {
		cfg := DefaultReportConfig()
		cfg.DrawTableBoxes = true
		cfg.DrawColumnLines = true

		guides := TableGuides(table, cfg)
		if len(guides) != 3 {
			t.Fatalf("TableGuides() = %d guides, want 3", len(guides))
		}
		if guides[0].Kind != KindTableBox {
			t.Errorf("guides[0].Kind = %q, want %q", guides[0].Kind, KindTableBox)
		}
		if guides[1].Kind != KindColumnLine || guides[1].X0 != 50 {
			t.Errorf("guides[1] = %+v, want column line at x=50", guides[1])
		}
		if guides[2].X0 != 200 {
			t.Errorf("guides[2].X0 = %v, want 200", guides[2].X0)
		}
	})
}

func TestBuildDocumentReport(t *testing.T) {
	tokens := []models.Token{
		{Text: "XYZ999999", X0: 50, Y0: 120, X1: 110, Y1: 130, Page: 1},
		{Text: "499.99", X0: 200, Y0: 120, X1: 240, Y1: 130, Page: 1},
	}

	report := BuildDocumentReport(flaggedAggregates(), tokens, nil, nil)

	if report.Document != "broker" {
		t.Errorf("Document = %q, want broker", report.Document)
	}
	if !reflect.DeepEqual(report.Flagged, []string{"XYZ999999"}) {
		t.Errorf("Flagged = %v, want [XYZ999999]", report.Flagged)
	}
	if len(report.Highlights) != 1 {
		t.Fatalf("Highlights = %d, want 1", len(report.Highlights))
	}
	if report.Highlights[0].PolicyNumber != "XYZ999999" {
		t.Errorf("highlight policy = %q, want XYZ999999", report.Highlights[0].PolicyNumber)
	}
}
