// Package models defines the core data types for policy premium
// reconciliation: positioned text tokens extracted from statement pages,
// the policy records read out of reconstructed tables, and the per-document
// premium aggregates the matcher operates on.
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// PolicyPattern matches the identifier shape of a policy number: an
// uppercase alphanumeric run of at least six characters.
var PolicyPattern = regexp.MustCompile(`[A-Z0-9]{6,}`)

// Token is a positioned text fragment from a statement page. Tokens are
// produced by an external text-extraction collaborator and are never
// mutated by the engine.
type Token struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Page int     `json:"page"`
}

// YCenter returns the vertical center of the token's bounding box.
func (t Token) YCenter() float64 {
	return (t.Y0 + t.Y1) / 2
}

// XLeft returns the left edge of the token's bounding box, the anchor
// position used for column assignment.
func (t Token) XLeft() float64 {
	return t.X0
}

// Validate performs basic validation on the Token
func (t Token) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("token text cannot be empty")
	}
	if t.X1 < t.X0 {
		return fmt.Errorf("token x1 (%.2f) cannot be less than x0 (%.2f)", t.X1, t.X0)
	}
	if t.Y1 < t.Y0 {
		return fmt.Errorf("token y1 (%.2f) cannot be less than y0 (%.2f)", t.Y1, t.Y0)
	}
	if t.Page < 1 {
		return fmt.Errorf("token page must be positive, got %d", t.Page)
	}
	return nil
}

// String returns a string representation of the Token
func (t Token) String() string {
	return fmt.Sprintf("Token{%q page=%d (%.1f,%.1f)-(%.1f,%.1f)}",
		t.Text, t.Page, t.X0, t.Y0, t.X1, t.Y1)
}

// Region is a candidate table bounding box on a page, supplied by the
// external table-region collaborator (or covering the whole page).
type Region struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Contains reports whether the token's top-left corner falls inside the
// region, with one unit of slack on every edge to absorb extraction jitter.
func (r Region) Contains(t Token) bool {
	return t.X0 >= r.X0-1 && t.X0 <= r.X1+1 &&
		t.Y0 >= r.Y0-1 && t.Y0 <= r.Y1+1
}

// PageTokens carries the tokens of one page of a document, plus any
// candidate table regions known for that page. An empty Regions slice
// means the whole page is treated as a single region.
type PageTokens struct {
	Page    int      `json:"page"`
	Tokens  []Token  `json:"tokens"`
	Regions []Region `json:"regions,omitempty"`
}

// PolicyRecord is one classified table row: a single premium entry for one
// policy on one page of one document.
type PolicyRecord struct {
	Document     string          `json:"document"`
	Page         int             `json:"page"`
	PolicyNumber string          `json:"policy_number"`
	Premium      decimal.Decimal `json:"premium"`
}

// Validate performs basic validation on the PolicyRecord
func (r *PolicyRecord) Validate() error {
	if strings.TrimSpace(r.Document) == "" {
		return fmt.Errorf("policy record document cannot be empty")
	}
	if strings.TrimSpace(r.PolicyNumber) == "" {
		return fmt.Errorf("policy record policy number cannot be empty")
	}
	if r.Page < 1 {
		return fmt.Errorf("policy record page must be positive, got %d", r.Page)
	}
	return nil
}

// String returns a string representation of the PolicyRecord
func (r *PolicyRecord) String() string {
	return fmt.Sprintf("PolicyRecord{%s p%d %s %s}",
		r.Document, r.Page, r.PolicyNumber, r.Premium.StringFixed(2))
}

// Aggregate is the summed premium for one policy number within one
// document. Balanced starts false and is flipped by the cross-document
// matcher when a related document carries an equal total.
type Aggregate struct {
	Document     string          `json:"document"`
	PolicyNumber string          `json:"policy_number"`
	PremiumTotal decimal.Decimal `json:"premium_total"`
	Balanced     bool            `json:"balanced"`
}

// String returns a string representation of the Aggregate
func (a *Aggregate) String() string {
	return fmt.Sprintf("Aggregate{%s %s %s balanced=%t}",
		a.Document, a.PolicyNumber, a.PremiumTotal.StringFixed(2), a.Balanced)
}

// MarshalJSON renders the premium total as a fixed two-decimal string
func (a *Aggregate) MarshalJSON() ([]byte, error) {
	type Alias Aggregate
	return json.Marshal(&struct {
		PremiumTotal string `json:"premium_total"`
		*Alias
	}{
		PremiumTotal: a.PremiumTotal.StringFixed(2),
		Alias:        (*Alias)(a),
	})
}

// ParsePremium parses a currency-like cell value into a decimal amount.
// Currency symbols, thousands separators and surrounding whitespace are
// stripped. Unparseable values become zero rather than an error: a cell
// that failed classification still occupies its table row.
func ParsePremium(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ExtractPolicyNumber returns the first policy-shaped substring of the
// given text, or the empty string when none is present.
func ExtractPolicyNumber(text string) string {
	return PolicyPattern.FindString(strings.TrimSpace(text))
}

// NormalizeFunc turns the raw text of an identifier cell into a canonical
// policy number, or the empty string when the cell holds none. Issuer
// specific cleanup is injected through this type.
type NormalizeFunc func(string) string

// DefaultNormalizer returns the issuer-agnostic normalization: the first
// policy-shaped substring of the trimmed cell text.
func DefaultNormalizer() NormalizeFunc {
	return ExtractPolicyNumber
}

// IntactNormalizer returns the normalization used for Intact statements:
// inner spaces are removed, a leading three-letter product prefix is
// dropped, and a trailing "H" check character is stripped from the match.
func IntactNormalizer() NormalizeFunc {
	return func(text string) string {
		text = strings.ReplaceAll(strings.TrimSpace(text), " ", "")
		if len(text) > 3 && isAlpha(text[:3]) {
			text = text[3:]
		}
		policy := PolicyPattern.FindString(text)
		if policy == "" {
			return ""
		}
		policy = strings.TrimSuffix(policy, "H")
		return policy
	}
}

// DetectNormalizer picks the normalizer for a document from its token
// text: statements mentioning "intact" get the Intact-specific cleanup.
func DetectNormalizer(pages []PageTokens) NormalizeFunc {
	for _, page := range pages {
		for _, tok := range page.Tokens {
			if strings.Contains(strings.ToLower(tok.Text), "intact") {
				return IntactNormalizer()
			}
		}
	}
	return DefaultNormalizer()
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
