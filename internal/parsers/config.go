package parsers

import (
	"fmt"
	"strings"
)

// TokenParserConfig configures CSV token-dump parsing. One dump file holds
// every positioned token of one document, with a required header row.
type TokenParserConfig struct {
	PageColumn string
	TextColumn string
	X0Column   string
	Y0Column   string
	X1Column   string
	Y1Column   string

	HasHeader bool
	Delimiter rune

	// ColumnAliases maps alternative header names onto the canonical
	// column names above, so dumps produced by different extraction
	// tools parse without per-tool configuration.
	ColumnAliases map[string]string
}

// DefaultTokenParserConfig returns the configuration for the standard
// token dump layout: page,text,x0,y0,x1,y1.
func DefaultTokenParserConfig() *TokenParserConfig {
	return &TokenParserConfig{
		PageColumn: "page",
		TextColumn: "text",
		X0Column:   "x0",
		Y0Column:   "y0",
		X1Column:   "x1",
		Y1Column:   "y1",
		HasHeader:  true,
		Delimiter:  ',',
		ColumnAliases: map[string]string{
			"page_number": "page",
			"pageno":      "page",
			"word":        "text",
			"token":       "text",
			"content":     "text",
			"left":        "x0",
			"top":         "y0",
			"right":       "x1",
			"bottom":      "y1",
		},
	}
}

// Validate validates the parser configuration
func (c *TokenParserConfig) Validate() error {
	for name, value := range map[string]string{
		"page column": c.PageColumn,
		"text column": c.TextColumn,
		"x0 column":   c.X0Column,
		"y0 column":   c.Y0Column,
		"x1 column":   c.X1Column,
		"y1 column":   c.Y1Column,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s name cannot be empty", name)
		}
	}
	if !c.HasHeader {
		return fmt.Errorf("token dumps without a header row are not supported")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// canonical resolves a header cell to its canonical column name
func (c *TokenParserConfig) canonical(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	if alias, ok := c.ColumnAliases[header]; ok {
		return alias
	}
	return header
}
