package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NumFeatures defines number of columns every uploaded table must have
const NumFeatures = 100

// maximum length of single line of uploaded table
const maxLineSize = 1 << 20

// FeatureTable represents validated input of the classifier
type FeatureTable struct {
	Columns []string    // canonical column names "0".."99"
	Header  []string    // normalized column labels of uploaded file
	Rows    [][]float64 // feature rows in upload order
}

// CanonicalColumns returns canonical column names of feature table
func CanonicalColumns() []string {
	cols := make([]string, NumFeatures)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	return cols
}

// helper function to strip quotes and white spaces from column label or cell
func normalizeLabel(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, `"`, ""))
}

// helper function to split line of the table into normalized fields.
// Numeric tables never carry separators inside quotes, therefore quotes
// are stripped rather than interpreted, e.g. ` "0" ,"1" ` yields 0 and 1.
func splitRecord(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i, field := range fields {
		fields[i] = normalizeLabel(field)
	}
	return fields
}

// Validate reads CSV table with header row and verifies it has exactly
// NumFeatures numeric columns
func Validate(r io.Reader) (*FeatureTable, error) {
	// honor UTF-8/UTF-16 BOM, otherwise read input as UTF-8
	scanner := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	// next returns next non blank line and its number
	var line int
	next := func() (string, bool) {
		for scanner.Scan() {
			line++
			text := scanner.Text()
			if strings.TrimSpace(text) != "" {
				return text, true
			}
		}
		return "", false
	}

	text, ok := next()
	if err := scanner.Err(); err != nil {
		return nil, stageError(StageValidating, SchemaError, err)
	}
	if !ok {
		return nil, stageError(StageValidating, SchemaError,
			fmt.Errorf("%w: expected %d columns, got empty input", ErrColumnCount, NumFeatures))
	}
	labels := splitRecord(text)
	if len(labels) != NumFeatures {
		return nil, stageError(StageValidating, SchemaError,
			fmt.Errorf("%w: expected %d columns, got %d", ErrColumnCount, NumFeatures, len(labels)))
	}

	table := &FeatureTable{Columns: CanonicalColumns(), Header: labels}
	for {
		text, ok := next()
		if !ok {
			break
		}
		record := splitRecord(text)
		if len(record) != NumFeatures {
			return nil, stageError(StageValidating, SchemaError,
				fmt.Errorf("%w: line %d has %d values, expected %d", ErrColumnCount, line, len(record), NumFeatures))
		}
		row := make([]float64, NumFeatures)
		for i, cell := range record {
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
				return nil, stageError(StageValidating, SchemaError,
					fmt.Errorf("%w: line %d column %q value %q", ErrBadCell, line, labels[i], cell))
			}
			row[i] = val
		}
		table.Rows = append(table.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, stageError(StageValidating, SchemaError, fmt.Errorf("line %d: %w", line+1, err))
	}
	if len(table.Rows) == 0 {
		return nil, stageError(StageValidating, SchemaError, ErrNoRows)
	}
	return table, nil
}
