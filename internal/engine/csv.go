package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// columnAliases maps each required canonical column to the header names
// banks commonly use for it. Headers are compared after trimming and
// lowercasing.
var columnAliases = map[string][]string{
	"description": {"payee", "details", "memo", "transaction_details", "transaction details"},
	"amount":      {"value", "debit", "credit", "trans_amount", "transaction amount"},
	"date":        {"transaction_date", "transaction date", "posted_date", "posted date", "trans_date"},
}

// requiredColumns fixes the error-message order for missing columns.
var requiredColumns = []string{"description", "amount", "date"}

// MissingColumnsError reports required statement columns that could not be
// resolved from the CSV header, even through aliases.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "invalid CSV format, missing required columns: " + strings.Join(e.Columns, ", ")
}

// ReadStatement parses a bank-statement CSV into canonical raw rows.
// Header names are normalized and mapped through the alias table, so
// "Posted Date" and "transaction_date" both become "date". Rows shorter
// than the header are padded with empty fields.
func ReadStatement(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	normalized := make([]string, len(header))
	for i, name := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(name))
	}

	// canonical column name -> index in the header
	indexes := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, canonical := range requiredColumns {
		idx, found := resolveColumn(normalized, canonical)
		if !found {
			missing = append(missing, canonical)
			continue
		}
		indexes[canonical] = idx
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(RawRow, len(indexes))
		for canonical, idx := range indexes {
			if idx < len(record) {
				row[canonical] = record[idx]
			} else {
				row[canonical] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func resolveColumn(header []string, canonical string) (int, bool) {
	for i, name := range header {
		if name == canonical {
			return i, true
		}
	}
	for _, alias := range columnAliases[canonical] {
		for i, name := range header {
			if name == alias {
				return i, true
			}
		}
	}
	return 0, false
}
