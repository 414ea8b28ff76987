package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"policy-reconciliation-service/internal/models"
)

// FileSource reads one document's tokens from a CSV token dump, with an
// optional sibling region file. It satisfies the reconciler's
// DocumentSource contract.
type FileSource struct {
	name       string
	tokenFile  string
	regionFile string
	parser     *TokenParser
}

// NewFileSource creates a document source over a token dump file. When
// regionFile is empty, RegionFileFor is consulted for a sibling region
// file; pages without regions are treated as a single whole-page region.
func NewFileSource(tokenFile, regionFile string, config *TokenParserConfig) (*FileSource, error) {
	parser, err := NewTokenParser(config)
	if err != nil {
		return nil, err
	}

	if regionFile == "" {
		regionFile = RegionFileFor(tokenFile)
	}

	base := filepath.Base(tokenFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return &FileSource{
		name:       name,
		tokenFile:  tokenFile,
		regionFile: regionFile,
		parser:     parser,
	}, nil
}

// RegionFileFor returns the conventional sibling region file path for a
// token dump (<name>.regions.csv), or empty when none exists on disk.
func RegionFileFor(tokenFile string) string {
	ext := filepath.Ext(tokenFile)
	candidate := strings.TrimSuffix(tokenFile, ext) + ".regions.csv"
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

// Name returns the document name (the dump file name without extension)
func (s *FileSource) Name() string {
	return s.name
}

// Pages reads the document's tokens, attaching candidate table regions
// when a region file is configured.
func (s *FileSource) Pages(ctx context.Context) ([]models.PageTokens, error) {
	pages, _, err := s.parser.ParseTokensWithContext(ctx, s.tokenFile)
	if err != nil {
		return nil, err
	}

	if s.regionFile == "" {
		return pages, nil
	}

	regions, err := ParseRegions(s.regionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions for %s: %w", s.name, err)
	}
	for i := range pages {
		pages[i].Regions = regions[pages[i].Page]
	}
	return pages, nil
}
