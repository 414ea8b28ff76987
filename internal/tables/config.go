package tables

import "fmt"

// Config holds the spatial thresholds for table reconstruction. The
// defaults were tuned empirically against broker and issuer statements in
// PDF user-space units.
type Config struct {
	// RowTolerance is the maximum distance between a token's vertical
	// center and a row's running center for the token to join that row.
	RowTolerance float64

	// XRounding is the grid size token x-positions are rounded to before
	// counting column candidates, absorbing small alignment jitter.
	XRounding float64

	// MinRowFrequency is the fraction of rows a rounded x-position must
	// appear in (minimum 2 rows) to count as a column.
	MinRowFrequency float64

	// ColumnMergeDistance is both the minimum spacing between detected
	// columns (closer pairs are merged at their midpoint) and the maximum
	// distance at which a token is assigned to its nearest column.
	ColumnMergeDistance float64
}

// DefaultConfig returns the reconstruction thresholds used in production
func DefaultConfig() Config {
	return Config{
		RowTolerance:        4,
		XRounding:           10,
		MinRowFrequency:     0.3,
		ColumnMergeDistance: 40,
	}
}

// Validate validates the reconstruction configuration
func (c Config) Validate() error {
	if c.RowTolerance <= 0 {
		return fmt.Errorf("row tolerance must be positive, got %g", c.RowTolerance)
	}
	if c.XRounding <= 0 {
		return fmt.Errorf("x rounding must be positive, got %g", c.XRounding)
	}
	if c.MinRowFrequency <= 0 || c.MinRowFrequency > 1 {
		return fmt.Errorf("min row frequency must be in (0,1], got %g", c.MinRowFrequency)
	}
	if c.ColumnMergeDistance <= 0 {
		return fmt.Errorf("column merge distance must be positive, got %g", c.ColumnMergeDistance)
	}
	return nil
}
