package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"policy-reconciliation-service/internal/aggregate"
	"policy-reconciliation-service/internal/matcher"
	"policy-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func testResult(t *testing.T) *matcher.Result {
	t.Helper()

	broker := aggregate.NewDocumentAggregates("broker")
	broker.Add(models.PolicyRecord{Document: "broker", Page: 1, PolicyNumber: "POL123456", Premium: decimal.RequireFromString("1200.00")})
	broker.Add(models.PolicyRecord{Document: "broker", Page: 1, PolicyNumber: "XYZ999999", Premium: decimal.RequireFromString("499.99")})

	issuer := aggregate.NewDocumentAggregates("issuer")
	issuer.Add(models.PolicyRecord{Document: "issuer", Page: 1, PolicyNumber: "POL123456", Premium: decimal.RequireFromString("1200.00")})
	issuer.Add(models.PolicyRecord{Document: "issuer", Page: 1, PolicyNumber: "XYZ999999", Premium: decimal.RequireFromString("500.00")})

	engine := matcher.NewEngine(nil)
	result, err := engine.Reconcile(map[string]*aggregate.DocumentAggregates{
		"broker": broker,
		"issuer": issuer,
	})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	return result
}

func TestGenerateConsoleReport(t *testing.T) {
	generator, err := NewReportGenerator(DefaultReportConfig())
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(testResult(t), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"RECONCILIATION REPORT",
		"Related pairs:       1",
		"Unbalanced policies: 2",
		"broker <-> issuer (2 shared policies)",
		"POL123456",
		"XYZ999999",
		"=== UNBALANCED POLICIES ===",
		"broker: XYZ999999 (499.99)",
		"issuer: XYZ999999 (500.00)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console report missing %q\n%s", want, output)
		}
	}
}

func TestGenerateConsoleReportExcludesBalanced(t *testing.T) {
	config := DefaultReportConfig()
	config.IncludeBalanced = false
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(testResult(t), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "POL123456") {
		t.Errorf("report includes balanced policy:\n%s", output)
	}
	if !strings.Contains(output, "XYZ999999") {
		t.Errorf("report missing unbalanced policy:\n%s", output)
	}
}

func TestGenerateJSONReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(testResult(t), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	var payload struct {
		Summary matcher.Summary `json:"summary"`
		Pairs   []matcher.Pair  `json:"pairs"`
		Documents []struct {
			Document   string `json:"document"`
			Aggregates []struct {
				PolicyNumber string `json:"policy_number"`
				PremiumTotal string `json:"premium_total"`
				Balanced     bool   `json:"balanced"`
			} `json:"aggregates"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("report is not valid JSON: %v\n%s", err, buf.String())
	}

	if payload.Summary.RelatedPairs != 1 {
		t.Errorf("summary.related_pairs = %d, want 1", payload.Summary.RelatedPairs)
	}
	if len(payload.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(payload.Documents))
	}
	if payload.Documents[0].Document != "broker" {
		t.Errorf("documents[0] = %s, want broker (sorted)", payload.Documents[0].Document)
	}
	if got := payload.Documents[0].Aggregates[0].PremiumTotal; got != "1200.00" {
		t.Errorf("premium_total = %q, want fixed two-decimal string", got)
	}
}

func TestGenerateCSVReport(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatCSV
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(testResult(t), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("report is not valid CSV: %v", err)
	}
	// Header plus four aggregates.
	if len(records) != 5 {
		t.Fatalf("CSV has %d records, want 5", len(records))
	}
	if records[0][0] != "Document" || records[0][3] != "Balanced" {
		t.Errorf("unexpected header row: %v", records[0])
	}
	if records[1][0] != "broker" || records[1][1] != "POL123456" || records[1][2] != "1200.00" || records[1][3] != "true" {
		t.Errorf("unexpected first aggregate row: %v", records[1])
	}
}

func TestGenerateReportNilResult(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}
	if err := generator.GenerateReport(nil, &bytes.Buffer{}); err == nil {
		t.Error("GenerateReport(nil) must fail")
	}
}

func TestReportConfigValidate(t *testing.T) {
	bad := DefaultReportConfig()
	bad.Format = OutputFormat("xml")
	if _, err := NewReportGenerator(bad); err == nil {
		t.Error("invalid format must not validate")
	}
}
