package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNationalIDBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantKey string
	}{
		{"plain digits", "12345678", "12345678", ""},
		{"dotted with verifier", "12.345.678-9", "12345678", ""},
		{"verifier k", "9.876.543-K", "9876543", ""},
		{"surrounding spaces", "  7654321 ", "7654321", ""},
		{"empty", "", "", "validation.user.missing_fields"},
		{"letters", "12AB5678", "", "validation.user.national_id"},
		{"too short", "12345", "", "validation.user.national_id"},
		{"too long", "1234567890", "", "validation.user.national_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNationalIDBody(tt.input)
			if tt.wantKey != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKey, ClassifyError(err).Key)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
