package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain card number",
			input: "PAYMENT CARD 4111111111111111",
			want:  "PAYMENT CARD [REDACTED]",
		},
		{
			name:  "hyphen separated card number",
			input: "PAYMENT 4111-1111-1111-1111 THANK YOU",
			want:  "PAYMENT [REDACTED] THANK YOU",
		},
		{
			name:  "space separated account number",
			input: "TRANSFER TO 1234 5678 90",
			want:  "TRANSFER TO [REDACTED]",
		},
		{
			name:  "seven digit account number",
			input: "ACH WITHDRAWAL ACCT 1234567",
			want:  "ACH WITHDRAWAL ACCT [REDACTED]",
		},
		{
			name:  "short digit runs untouched",
			input: "STARBUCKS STORE #123",
			want:  "STARBUCKS STORE #123",
		},
		{
			name:  "no digits",
			input: "WHOLE FOODS MARKET",
			want:  "WHOLE FOODS MARKET",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "multiple numbers masked independently",
			input: "FROM 12345678 TO 87654321",
			want:  "FROM [REDACTED] TO [REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Description(tt.input))
		})
	}
}
