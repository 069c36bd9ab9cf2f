package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartspend/smartspend/internal/sanitize"
)

// RawRow is one uploaded CSV row as delivered by the job queue: a
// string-keyed mapping whose field names may arrive in any casing.
type RawRow map[string]string

// ParsedRow is the typed form of one raw row. Parsing is total: a missing
// or unparseable date becomes "now", a missing or unparseable amount
// becomes zero, and the description is PII-masked.
type ParsedRow struct {
	Date                time.Time
	OriginalDescription string
	CleanDescription    string
	Amount              decimal.Decimal
}

// dateLayouts are the accepted date and datetime forms, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseRow normalizes field names and coerces values from a raw row.
// now supplies the substitute timestamp for unusable dates.
func ParseRow(row RawRow, now func() time.Time) ParsedRow {
	original := field(row, "description")
	clean := sanitize.Description(original)

	return ParsedRow{
		Date:                parseDate(field(row, "date"), now),
		OriginalDescription: original,
		CleanDescription:    clean,
		Amount:              parseAmount(field(row, "amount")),
	}
}

// field returns the value for a canonical field name, matching keys
// case-insensitively so "Description" and "description" are equivalent.
func field(row RawRow, name string) string {
	if v, ok := row[name]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return v
		}
	}
	return ""
}

func parseDate(value string, now func() time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now()
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	return now()
}

func parseAmount(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
