// Package reconciler orchestrates the reconciliation pipeline: token
// ingestion, table reconstruction, column-role classification and
// per-document aggregation, followed by the cross-document balance pass.
//
// Each document runs through reconstruction and aggregation independently
// (and concurrently); the matcher only runs once every participating
// document's aggregates exist.
package reconciler

import (
	"context"
	"fmt"

	"policy-reconciliation-service/internal/aggregate"
	"policy-reconciliation-service/internal/classify"
	"policy-reconciliation-service/internal/models"
	"policy-reconciliation-service/internal/tables"
	"policy-reconciliation-service/pkg/logger"
)

// DocumentSource yields the positioned tokens of one document. Token
// extraction itself (PDF text extraction, OCR) is an external concern;
// the engine only consumes its output.
type DocumentSource interface {
	Name() string
	Pages(ctx context.Context) ([]models.PageTokens, error)
}

// Config holds configuration options for the reconciliation service
type Config struct {
	// MaxConcurrentDocuments bounds how many documents are reconstructed
	// and aggregated in parallel.
	MaxConcurrentDocuments int

	// ProgressReporting enables periodic progress logging for large
	// document batches.
	ProgressReporting bool
}

// DefaultConfig returns a default service configuration
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrentDocuments: 4,
		ProgressReporting:      false,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentDocuments <= 0 {
		return fmt.Errorf("max concurrent documents must be positive, got %d", c.MaxConcurrentDocuments)
	}
	return nil
}

// DocumentResult is the outcome of one document's pipeline run
type DocumentResult struct {
	Document   string
	Tokens     []models.Token
	Tables     []*tables.Table
	Records    []models.PolicyRecord
	Aggregates *aggregate.DocumentAggregates
}

// Service runs the per-document pipeline
type Service struct {
	tablesConfig tables.Config
	config       *Config

	// normalize overrides per-document normalizer detection when set
	normalize models.NormalizeFunc

	logger logger.Logger
}

// NewService creates a reconciliation service
func NewService(tablesConfig tables.Config, config *Config) (*Service, error) {
	if err := tablesConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table reconstruction config: %w", err)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}
	return &Service{
		tablesConfig: tablesConfig,
		config:       config,
		logger:       logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// SetNormalizer forces a policy-number normalizer for every document,
// instead of detecting one per document from its token text.
func (s *Service) SetNormalizer(normalize models.NormalizeFunc) {
	s.normalize = normalize
}

// ProcessDocument runs one document through reconstruction,
// classification and aggregation. A document that yields no accepted
// tables produces an empty aggregate set, not an error.
func (s *Service) ProcessDocument(ctx context.Context, source DocumentSource) (*DocumentResult, error) {
	document := source.Name()
	log := s.logger.WithField("document", document)

	pages, err := source.Pages(ctx)
	if err != nil {
		return nil, err
	}

	normalize := s.normalize
	if normalize == nil {
		normalize = models.DetectNormalizer(pages)
	}

	result := &DocumentResult{Document: document}

	for _, page := range pages {
		result.Tokens = append(result.Tokens, page.Tokens...)

		for _, region := range candidateRegions(page) {
			regionTokens := tables.TokensInRegion(page.Tokens, region)
			if len(regionTokens) == 0 {
				continue
			}

			reconstructed := tables.ReconstructTables([]tables.RegionTokens{{
				Document: document,
				Page:     page.Page,
				Region:   region,
				Tokens:   regionTokens,
			}}, s.tablesConfig)

			for _, table := range reconstructed {
				roles, ok := classify.Classify(table)
				if !ok {
					log.WithField("page", page.Page).Debug("Discarding table: no policy/premium columns")
					continue
				}
				result.Tables = append(result.Tables, table)
				result.Records = append(result.Records, aggregate.ExtractRecords(table, roles, normalize)...)
			}
		}
	}

	result.Aggregates = aggregate.Build(document, result.Records)

	log.WithFields(logger.Fields{
		"pages":    len(pages),
		"tables":   len(result.Tables),
		"records":  len(result.Records),
		"policies": result.Aggregates.Len(),
	}).Info("Processed document")

	return result, nil
}

// candidateRegions returns the page's supplied table regions, or a single
// whole-page region when none were supplied.
func candidateRegions(page models.PageTokens) []models.Region {
	if len(page.Regions) > 0 {
		return page.Regions
	}
	if len(page.Tokens) == 0 {
		return nil
	}
	return []models.Region{tables.PageRegion(page.Tokens)}
}
