package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"policy-reconciliation-service/cmd/reconciler/config"
	"policy-reconciliation-service/internal/matcher"
	"policy-reconciliation-service/internal/parsers"
	"policy-reconciliation-service/internal/reconciler"
	"policy-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	documentFiles []string
	outputFormat  string
	outputFile    string
	highlightsDir string

	rowTolerance        float64
	xRounding           float64
	minRowFrequency     float64
	columnMergeDistance float64

	amountTolerance float64
	normalizerName  string

	maxConcurrent int
	showProgress  bool
	drawTables    bool
	drawColumns   bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile premiums across related statement documents",
	Long: `Reconcile reconstructs tables from positioned token dumps, aggregates
premium amounts per policy number in each document, and cross-checks
totals between every pair of documents that share policy numbers.
Policies whose totals do not balance are reported and emitted as
highlight instructions for marking up the source documents.

Each document is a CSV token dump (page,text,x0,y0,x1,y1). A sibling
<name>.regions.csv file, when present, restricts table reconstruction
to the listed page regions; otherwise whole pages are scanned.

Examples:
  # Basic reconciliation of two statements
  reconciler reconcile --documents broker.csv,issuer.csv

  # JSON report to a file, highlight instructions per document
  reconciler reconcile -d broker.csv,issuer.csv \
    --output-format json --output-file report.json \
    --highlights-dir ./highlights

  # Tuned reconstruction thresholds with debug guides
  reconciler reconcile -d a.csv,b.csv,c.csv \
    --row-tolerance 6 --column-merge-distance 50 \
    --draw-tables --draw-columns

  # Force the carrier-specific policy number normalizer
  reconciler reconcile -d broker.csv,intact.csv --normalizer intact`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringSliceVarP(&documentFiles, "documents", "d", []string{}, "comma-separated paths to document token dumps (at least two required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().StringVar(&highlightsDir, "highlights-dir", "", "directory for per-document highlight instruction files")

	// Table reconstruction flags (zero keeps the default)
	reconcileCmd.Flags().Float64Var(&rowTolerance, "row-tolerance", 0, "vertical distance for tokens to share a row")
	reconcileCmd.Flags().Float64Var(&xRounding, "x-rounding", 0, "grid size for column candidate detection")
	reconcileCmd.Flags().Float64Var(&minRowFrequency, "min-row-frequency", 0, "fraction of rows an x-position needs to count as a column")
	reconcileCmd.Flags().Float64Var(&columnMergeDistance, "column-merge-distance", 0, "minimum spacing between detected columns")

	// Matching flags
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0.0, "premium total tolerance in currency units (0 = exact)")
	reconcileCmd.Flags().StringVar(&normalizerName, "normalizer", "auto", "policy number normalizer: auto, default, intact")

	// Execution flags
	reconcileCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "maximum documents processed in parallel (0 = default)")
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")
	reconcileCmd.Flags().BoolVar(&drawTables, "draw-tables", false, "include reconstructed table boxes in highlight output")
	reconcileCmd.Flags().BoolVar(&drawColumns, "draw-columns", false, "include inferred column lines in highlight output")

	reconcileCmd.MarkFlagRequired("documents")

	// Bind flags to viper
	viper.BindPFlag("documents", reconcileCmd.Flags().Lookup("documents"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("highlights-dir", reconcileCmd.Flags().Lookup("highlights-dir"))
	viper.BindPFlag("row-tolerance", reconcileCmd.Flags().Lookup("row-tolerance"))
	viper.BindPFlag("x-rounding", reconcileCmd.Flags().Lookup("x-rounding"))
	viper.BindPFlag("min-row-frequency", reconcileCmd.Flags().Lookup("min-row-frequency"))
	viper.BindPFlag("column-merge-distance", reconcileCmd.Flags().Lookup("column-merge-distance"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("normalizer", reconcileCmd.Flags().Lookup("normalizer"))
	viper.BindPFlag("max-concurrent", reconcileCmd.Flags().Lookup("max-concurrent"))
	viper.BindPFlag("progress", reconcileCmd.Flags().Lookup("progress"))
	viper.BindPFlag("draw-tables", reconcileCmd.Flags().Lookup("draw-tables"))
	viper.BindPFlag("draw-columns", reconcileCmd.Flags().Lookup("draw-columns"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	documentFiles = viper.GetStringSlice("documents")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	highlightsDir = viper.GetString("highlights-dir")
	rowTolerance = viper.GetFloat64("row-tolerance")
	xRounding = viper.GetFloat64("x-rounding")
	minRowFrequency = viper.GetFloat64("min-row-frequency")
	columnMergeDistance = viper.GetFloat64("column-merge-distance")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	normalizerName = viper.GetString("normalizer")
	maxConcurrent = viper.GetInt("max-concurrent")
	showProgress = viper.GetBool("progress")
	drawTables = viper.GetBool("draw-tables")
	drawColumns = viper.GetBool("draw-columns")

	if len(documentFiles) < 2 {
		return fmt.Errorf("at least two documents are required, got %d", len(documentFiles))
	}

	for i, documentFile := range documentFiles {
		if err := validateFileExists(documentFile, fmt.Sprintf("document %d", i+1)); err != nil {
			return err
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if amountTolerance < 0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if maxConcurrent < 0 {
		return fmt.Errorf("max-concurrent cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	if highlightsDir != "" {
		info, err := os.Stat(highlightsDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("highlights directory does not exist: %s", highlightsDir)
		}
		if err != nil {
			return fmt.Errorf("error accessing highlights directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("highlights path is not a directory: %s", highlightsDir)
		}
	}

	if _, err := config.CreateNormalizer(normalizerName); err != nil {
		return err
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Documents: %s\n", strings.Join(documentFiles, ", "))
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Create configurations
	parserConfig, err := config.CreateTokenParserConfig()
	if err != nil {
		return err
	}
	tablesConfig, err := config.CreateTablesConfig(rowTolerance, xRounding, minRowFrequency, columnMergeDistance)
	if err != nil {
		return fmt.Errorf("invalid table reconstruction settings: %w", err)
	}
	matchingConfig, err := config.CreateMatchingConfig(amountTolerance)
	if err != nil {
		return fmt.Errorf("invalid matching settings: %w", err)
	}
	serviceConfig := config.CreateServiceConfig(maxConcurrent, showProgress)
	reportConfig, err := config.CreateReportConfig(outputFormat, drawTables, drawColumns)
	if err != nil {
		return err
	}
	normalize, err := config.CreateNormalizer(normalizerName)
	if err != nil {
		return err
	}

	// Create document sources
	sources := make([]reconciler.DocumentSource, 0, len(documentFiles))
	for _, documentFile := range documentFiles {
		source, err := parsers.NewFileSource(documentFile, "", parserConfig)
		if err != nil {
			return fmt.Errorf("failed to open document %s: %w", documentFile, err)
		}
		sources = append(sources, source)
	}

	// Wire the pipeline
	service, err := reconciler.NewService(tablesConfig, serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}
	service.SetNormalizer(normalize)

	engine := matcher.NewEngine(matchingConfig)
	orchestrator := reconciler.NewOrchestrator(service, engine)

	runResult, err := orchestrator.ProcessDocuments(ctx, sources)
	if err != nil {
		if errors.Is(err, matcher.ErrNoRelatedDocuments) {
			// Not a failure: there is simply nothing to cross-check.
			fmt.Fprintf(os.Stderr, "No related documents found: no two documents share a policy number\n")
			return nil
		}
		return err
	}

	for _, skipped := range runResult.Skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipped %s: %s\n", skipped.Document, skipped.Reason)
	}

	// Generate the report
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	writer := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	if err := generator.GenerateReport(runResult.Reconciliation, writer); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if highlightsDir != "" {
		if err := writeHighlightFiles(runResult, reportConfig); err != nil {
			return err
		}
	}

	return nil
}

// writeHighlightFiles emits one JSON highlight instruction file per
// participating document into the highlights directory.
func writeHighlightFiles(runResult *reconciler.RunResult, cfg *reporter.ReportConfig) error {
	for _, report := range runResult.DocumentReports(cfg) {
		path := filepath.Join(highlightsDir, report.Document+".highlights.json")

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode highlights for %s: %w", report.Document, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write highlights for %s: %w", report.Document, err)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Wrote %s (%d highlights)\n", path, len(report.Highlights))
		}
	}
	return nil
}
