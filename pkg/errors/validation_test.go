package errors

import (
	"strings"
	"testing"
)

func TestValidateSearchTerm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "LM358", false},
		{"valid with dash", "SN74HC595-Q1", false},
		{"valid with parens", "SM03B-SRSS-TB(LF)(SN)", false},
		{"valid with slash", "CRCW0603100K/1%", false},
		{"valid with space", "RC0603 10K", false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("A", 200), true},
		{"null byte", "LM\x00358", true},
		{"control char", "LM\x01358", true},
		{"newline", "LM358\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchTerm(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSearchTerm(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidTerm) {
				t.Errorf("ValidateSearchTerm(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidTerm)
			}
		})
	}
}

func TestValidateSupplierID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid short", "ti", false},
		{"valid word", "future", false},
		{"valid underscore", "lcsc_v2", false},
		{"valid digits", "rs2", false},

		{"empty", "", true},
		{"uppercase", "TI", true},
		{"dash", "future-electronics", true},
		{"leading underscore", "_ti", true},
		{"space", "t i", true},
		{"dot", "ti.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSupplierID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSupplierID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://transact.ti.com/", false},
		{"http", "http://localhost:8000", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"no scheme", "example.com", true},
		{"javascript", "javascript:alert(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"USD", false},
		{"EUR", false},
		{"GBP", false},
		{"usd", true},
		{"US", true},
		{"USDT", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateCurrency(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCurrency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
