package reconciler

import (
	"context"
	"sort"
	"sync"

	"policy-reconciliation-service/internal/aggregate"
	"policy-reconciliation-service/internal/matcher"
	"policy-reconciliation-service/internal/reporter"
	"policy-reconciliation-service/pkg/logger"
)

// SkippedDocument records a document excluded from the run and why
type SkippedDocument struct {
	Document string `json:"document"`
	Reason   string `json:"reason"`
}

// RunResult is the outcome of a full reconciliation run
type RunResult struct {
	Documents      map[string]*DocumentResult
	Skipped        []SkippedDocument
	Reconciliation *matcher.Result
}

// Orchestrator coordinates a multi-document reconciliation run: the
// per-document pipelines fan out with bounded concurrency, failed
// documents are isolated and logged, and the cross-document balance pass
// runs once all aggregates exist.
type Orchestrator struct {
	service *Service
	engine  *matcher.Engine
	logger  logger.Logger
}

// NewOrchestrator creates an orchestrator over a service and matching engine
func NewOrchestrator(service *Service, engine *matcher.Engine) *Orchestrator {
	if engine == nil {
		engine = matcher.NewEngine(nil)
	}
	return &Orchestrator{
		service: service,
		engine:  engine,
		logger:  logger.GetGlobalLogger().WithComponent("orchestrator"),
	}
}

// ProcessDocuments runs every source through the per-document pipeline
// and then reconciles the resulting aggregates. A document whose source
// fails is logged and excluded; a document with no aggregates is excluded
// from pairing. The error return is matcher.ErrNoRelatedDocuments when no
// two surviving documents share a policy number, a terminal outcome the
// caller reports, not a failure.
func (o *Orchestrator) ProcessDocuments(ctx context.Context, sources []DocumentSource) (*RunResult, error) {
	result := &RunResult{
		Documents: make(map[string]*DocumentResult),
	}

	var progress *logger.ProgressTracker
	if o.service.config.ProgressReporting {
		progress = logger.NewProgressTracker(logger.ProgressConfig{
			Operation: "process_documents",
			Total:     int64(len(sources)),
		})
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.service.config.MaxConcurrentDocuments)
	)

	for _, source := range sources {
		wg.Add(1)
		go func(source DocumentSource) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			docResult, err := o.service.ProcessDocument(ctx, source)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One unreadable document must not abort the run.
				o.logger.WithError(err).WithField("document", source.Name()).Error("Skipping document")
				result.Skipped = append(result.Skipped, SkippedDocument{
					Document: source.Name(),
					Reason:   err.Error(),
				})
			} else {
				result.Documents[docResult.Document] = docResult
			}
			if progress != nil {
				progress.Increment()
			}
		}(source)
	}
	wg.Wait()

	if progress != nil {
		progress.Done()
	}

	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].Document < result.Skipped[j].Document
	})

	aggregates := make(map[string]*aggregate.DocumentAggregates)
	for name, doc := range result.Documents {
		if doc.Aggregates.Len() == 0 {
			o.logger.WithField("document", name).Warn("Document yielded no policy data, excluding from pairing")
			result.Skipped = append(result.Skipped, SkippedDocument{
				Document: name,
				Reason:   "no policy data reconstructed",
			})
			continue
		}
		aggregates[name] = doc.Aggregates
	}

	reconciliation, err := o.engine.Reconcile(aggregates)
	result.Reconciliation = reconciliation
	return result, err
}

// DocumentReports builds the per-document discrepancy artifacts for every
// document that participates in at least one related pair.
func (r *RunResult) DocumentReports(cfg *reporter.ReportConfig) []*reporter.DocumentReport {
	if r.Reconciliation == nil {
		return nil
	}

	var reports []*reporter.DocumentReport
	for _, document := range r.Reconciliation.ParticipatingDocuments() {
		doc, ok := r.Documents[document]
		if !ok {
			continue
		}
		reports = append(reports, reporter.BuildDocumentReport(
			doc.Aggregates, doc.Tokens, doc.Tables, cfg,
		))
	}
	return reports
}
