package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"policy-reconciliation-service/internal/models"
	apperrors "policy-reconciliation-service/pkg/errors"
)

// ParseRegions reads an optional candidate-table-region file: CSV with a
// page,x0,y0,x1,y1 header, one region per line. Documents without a
// region file are processed with one whole-page region per page.
func ParseRegions(path string) (map[int][]models.Region, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.ParseFailure(apperrors.CodeInvalidFormat, path, 1,
			fmt.Errorf("failed to read header row: %w", err))
	}

	index := make(map[string]int)
	for i, cell := range header {
		index[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	for _, col := range []string{"page", "x0", "y0", "x1", "y1"} {
		if _, ok := index[col]; !ok {
			return nil, apperrors.ParseFailure(apperrors.CodeMissingColumn, path, 1,
				fmt.Errorf("missing required column %q in header", col))
		}
	}

	regions := make(map[int][]models.Region)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.ParseFailure(apperrors.CodeInvalidFormat, path, line, err)
		}

		page, err := strconv.Atoi(strings.TrimSpace(record[index["page"]]))
		if err != nil {
			return nil, apperrors.ParseFailure(apperrors.CodeInvalidData, path, line,
				fmt.Errorf("invalid page number %q: %w", record[index["page"]], err))
		}

		var coords [4]float64
		for i, col := range []string{"x0", "y0", "x1", "y1"} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[index[col]]), 64)
			if err != nil {
				return nil, apperrors.ParseFailure(apperrors.CodeInvalidData, path, line,
					fmt.Errorf("invalid %s %q: %w", col, record[index[col]], err))
			}
			coords[i] = v
		}

		regions[page] = append(regions[page], models.Region{
			X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3],
		})
	}

	return regions, nil
}
