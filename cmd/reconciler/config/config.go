// Package config builds the engine configurations from CLI flag values.
package config

import (
	"fmt"

	"policy-reconciliation-service/internal/matcher"
	"policy-reconciliation-service/internal/models"
	"policy-reconciliation-service/internal/parsers"
	"policy-reconciliation-service/internal/reconciler"
	"policy-reconciliation-service/internal/reporter"
	"policy-reconciliation-service/internal/tables"

	"github.com/shopspring/decimal"
)

// CreateTokenParserConfig creates the token dump parser configuration
func CreateTokenParserConfig() (*parsers.TokenParserConfig, error) {
	config := parsers.DefaultTokenParserConfig()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid token parser config: %w", err)
	}
	return config, nil
}

// CreateTablesConfig creates a table reconstruction configuration with the
// CLI overrides applied. A zero value leaves the production default in place.
func CreateTablesConfig(rowTolerance, xRounding, minRowFrequency, columnMergeDistance float64) (tables.Config, error) {
	config := tables.DefaultConfig()

	if rowTolerance > 0 {
		config.RowTolerance = rowTolerance
	}
	if xRounding > 0 {
		config.XRounding = xRounding
	}
	if minRowFrequency > 0 {
		config.MinRowFrequency = minRowFrequency
	}
	if columnMergeDistance > 0 {
		config.ColumnMergeDistance = columnMergeDistance
	}

	if err := config.Validate(); err != nil {
		return tables.Config{}, err
	}
	return config, nil
}

// CreateMatchingConfig creates a matching configuration with the specified
// amount tolerance (in currency units, zero means strict equality).
func CreateMatchingConfig(amountTolerance float64) (*matcher.MatchingConfig, error) {
	config := matcher.DefaultMatchingConfig()
	config.AmountTolerance = decimal.NewFromFloat(amountTolerance)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateServiceConfig creates a reconciliation service configuration
func CreateServiceConfig(maxConcurrent int, showProgress bool) *reconciler.Config {
	config := reconciler.DefaultConfig()

	if maxConcurrent > 0 {
		config.MaxConcurrentDocuments = maxConcurrent
	}
	config.ProgressReporting = showProgress

	return config
}

// CreateReportConfig creates a report configuration for the given format
func CreateReportConfig(format string, drawTables, drawColumns bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(format)
	config.DrawTableBoxes = drawTables
	config.DrawColumnLines = drawColumns

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateNormalizer resolves a normalizer name from the CLI. The empty
// string or "auto" defers to per-document detection.
func CreateNormalizer(name string) (models.NormalizeFunc, error) {
	switch name {
	case "", "auto":
		return nil, nil
	case "default":
		return models.DefaultNormalizer(), nil
	case "intact":
		return models.IntactNormalizer(), nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q (valid: auto, default, intact)", name)
	}
}
