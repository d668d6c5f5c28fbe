package schedule

import (
	"errors"
	"testing"
)

func TestValidateCron(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr error
	}{
		{"", ErrEmptyExpression},
		{"   ", ErrEmptyExpression},
		{"a b c", ErrFieldCount},
		{"* * * *", ErrFieldCount},
		{"* * * * * *", ErrFieldCount},
		{"0 9 * * 1", nil},
		{"  0 9 * * 1  ", nil},
		// structural check only: field contents are not inspected
		{"a b c d e", nil},
	}
	for _, tt := range tests {
		err := ValidateCron(tt.expr)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateCron(%q) = %v, want %v", tt.expr, err, tt.wantErr)
		}
	}
}
