package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchingConfig controls how two documents' premium totals are compared.
type MatchingConfig struct {
	// AmountTolerance is the maximum absolute difference between two
	// totals still considered balanced. Zero means a strict equality
	// check on the summed totals, which is the default. See DESIGN.md.
	AmountTolerance decimal.Decimal
}

// DefaultMatchingConfig returns the strict-equality configuration
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		AmountTolerance: decimal.Zero,
	}
}

// Validate validates the matching configuration
func (c *MatchingConfig) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative, got %s", c.AmountTolerance)
	}
	return nil
}

// Clone returns a copy of the configuration
func (c *MatchingConfig) Clone() *MatchingConfig {
	return &MatchingConfig{AmountTolerance: c.AmountTolerance}
}

// equalTotals reports whether two premium totals balance under the
// configured tolerance.
func (c *MatchingConfig) equalTotals(a, b decimal.Decimal) bool {
	if c.AmountTolerance.IsZero() {
		return a.Equal(b)
	}
	return a.Sub(b).Abs().LessThanOrEqual(c.AmountTolerance)
}
