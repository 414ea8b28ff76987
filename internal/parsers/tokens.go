// Package parsers reads token dumps: CSV files carrying the positioned
// text tokens of a statement document, as produced by an external
// text-extraction tool. The reconciliation engine itself is agnostic to
// where tokens come from; this package is the one concrete source the CLI
// ships with.
//
// Malformed lines are skipped and counted rather than failing the file:
// a partially extracted document can still reconcile on the pages that
// parsed.
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"policy-reconciliation-service/internal/models"
	apperrors "policy-reconciliation-service/pkg/errors"
	"policy-reconciliation-service/pkg/logger"
)

// ParseError describes a failure on one line of a token dump
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s=%q): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s=%q): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseStats summarizes one parsing pass
type ParseStats struct {
	TotalLines   int
	ParsedTokens int
	SkippedLines int
	Errors       []error
}

// TokenParser parses CSV token dumps into positioned tokens
type TokenParser struct {
	config *TokenParserConfig
	logger logger.Logger
}

// NewTokenParser creates a token parser with the given configuration
func NewTokenParser(config *TokenParserConfig) (*TokenParser, error) {
	if config == nil {
		config = DefaultTokenParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid token parser configuration: %w", err)
	}
	return &TokenParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("token_parser"),
	}, nil
}

// ParseTokens reads every token in the dump file, grouped by page in
// ascending page order.
func (p *TokenParser) ParseTokens(path string) ([]models.PageTokens, *ParseStats, error) {
	return p.ParseTokensWithContext(context.Background(), path)
}

// ParseTokensWithContext is ParseTokens with cancellation between lines.
func (p *TokenParser) ParseTokensWithContext(ctx context.Context, path string) ([]models.PageTokens, *ParseStats, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &ParseStats{}

	header, err := reader.Read()
	if err != nil {
		return nil, stats, apperrors.ParseFailure(apperrors.CodeInvalidFormat, path, 1,
			fmt.Errorf("failed to read header row: %w", err))
	}
	stats.TotalLines++

	columns, err := p.resolveColumns(header)
	if err != nil {
		return nil, stats, apperrors.ParseFailure(apperrors.CodeMissingColumn, path, 1, err)
	}

	byPage := make(map[int][]models.Token)
	line := 1
	for {
		select {
		case <-ctx.Done():
			return nil, stats, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		stats.TotalLines++
		if err != nil {
			stats.SkippedLines++
			stats.Errors = append(stats.Errors, &ParseError{Line: line, Message: "malformed CSV line", Err: err})
			continue
		}

		token, perr := p.parseToken(record, columns, line)
		if perr != nil {
			stats.SkippedLines++
			stats.Errors = append(stats.Errors, perr)
			p.logger.WithError(perr).WithField("file", path).Debug("Skipping token line")
			continue
		}

		byPage[token.Page] = append(byPage[token.Page], token)
		stats.ParsedTokens++
	}

	pages := make([]models.PageTokens, 0, len(byPage))
	for page, tokens := range byPage {
		pages = append(pages, models.PageTokens{Page: page, Tokens: tokens})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })

	p.logger.WithFields(logger.Fields{
		"file":    path,
		"tokens":  stats.ParsedTokens,
		"skipped": stats.SkippedLines,
		"pages":   len(pages),
	}).Debug("Parsed token dump")

	return pages, stats, nil
}

// columnIndexes holds the resolved field positions of the token columns
type columnIndexes struct {
	page, text, x0, y0, x1, y1 int
}

func (p *TokenParser) resolveColumns(header []string) (*columnIndexes, error) {
	found := make(map[string]int)
	for i, cell := range header {
		found[p.config.canonical(cell)] = i
	}

	idx := &columnIndexes{}
	for _, want := range []struct {
		name string
		dest *int
	}{
		{p.config.PageColumn, &idx.page},
		{p.config.TextColumn, &idx.text},
		{p.config.X0Column, &idx.x0},
		{p.config.Y0Column, &idx.y0},
		{p.config.X1Column, &idx.x1},
		{p.config.Y1Column, &idx.y1},
	} {
		pos, ok := found[want.name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q in header", want.name)
		}
		*want.dest = pos
	}
	return idx, nil
}

func (p *TokenParser) parseToken(record []string, columns *columnIndexes, line int) (models.Token, *ParseError) {
	need := columns.page
	for _, i := range []int{columns.text, columns.x0, columns.y0, columns.x1, columns.y1} {
		if i > need {
			need = i
		}
	}
	if len(record) <= need {
		return models.Token{}, &ParseError{Line: line, Message: "too few fields"}
	}

	page, err := strconv.Atoi(strings.TrimSpace(record[columns.page]))
	if err != nil {
		return models.Token{}, &ParseError{Line: line, Field: "page", Value: record[columns.page], Message: "invalid page number", Err: err}
	}

	coords := make([]float64, 4)
	for i, col := range []int{columns.x0, columns.y0, columns.x1, columns.y1} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return models.Token{}, &ParseError{Line: line, Field: fmt.Sprintf("coordinate %d", i), Value: record[col], Message: "invalid coordinate", Err: err}
		}
		coords[i] = v
	}

	token := models.Token{
		Text: strings.TrimSpace(record[columns.text]),
		X0:   coords[0],
		Y0:   coords[1],
		X1:   coords[2],
		Y1:   coords[3],
		Page: page,
	}
	if err := token.Validate(); err != nil {
		return models.Token{}, &ParseError{Line: line, Field: "token", Value: token.Text, Message: "invalid token", Err: err}
	}
	return token, nil
}
