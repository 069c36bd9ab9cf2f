package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStatement(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    []RawRow
		wantErr string
	}{
		{
			name: "canonical headers",
			csv: "description,amount,date\n" +
				"WHOLE FOODS,-42.17,2024-03-01\n" +
				"UBER TRIP,-15.50,2024-03-02\n",
			want: []RawRow{
				{"description": "WHOLE FOODS", "amount": "-42.17", "date": "2024-03-01"},
				{"description": "UBER TRIP", "amount": "-15.50", "date": "2024-03-02"},
			},
		},
		{
			name: "bank aliases resolve to canonical names",
			csv: "Payee,Value,Posted Date\n" +
				"NETFLIX,9.99,2024-03-03\n",
			want: []RawRow{
				{"description": "NETFLIX", "amount": "9.99", "date": "2024-03-03"},
			},
		},
		{
			name: "headers normalized before matching",
			csv: "  DESCRIPTION , Transaction_Date ,AMOUNT\n" +
				"CORNER SHOP,2024-03-04,3.00\n",
			want: []RawRow{
				{"description": "CORNER SHOP", "amount": "3.00", "date": "2024-03-04"},
			},
		},
		{
			name: "extra columns ignored",
			csv: "id,description,amount,date,balance\n" +
				"1,WHOLE FOODS,-42.17,2024-03-01,958.12\n",
			want: []RawRow{
				{"description": "WHOLE FOODS", "amount": "-42.17", "date": "2024-03-01"},
			},
		},
		{
			name: "short rows padded with empty fields",
			csv: "description,amount,date\n" +
				"LONELY ROW\n",
			want: []RawRow{
				{"description": "LONELY ROW", "amount": "", "date": ""},
			},
		},
		{
			name:    "missing columns reported in order",
			csv:     "memo,balance\nWHOLE FOODS,958.12\n",
			wantErr: "invalid CSV format, missing required columns: amount, date",
		},
		{
			name:    "all columns missing",
			csv:     "a,b,c\n1,2,3\n",
			wantErr: "invalid CSV format, missing required columns: description, amount, date",
		},
		{
			name:    "empty input",
			csv:     "",
			wantErr: "failed to read CSV header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadStatement(strings.NewReader(tt.csv))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadStatement_MissingColumnsErrorType(t *testing.T) {
	_, err := ReadStatement(strings.NewReader("memo,balance\n"))

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"amount", "date"}, missing.Columns)
}
