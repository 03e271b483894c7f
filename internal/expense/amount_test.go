package expense

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		locale  string
		want    string
		wantErr bool
	}{
		{name: "thousands commas", raw: "1,250,000", locale: "en-US", want: "1250000"},
		{name: "dot decimals", raw: "-25.50", locale: "en-US", want: "-25.5"},
		{name: "vietnamese thousands dots", raw: "1.250.000", locale: "vi-VN", want: "1250000"},
		{name: "decimal comma", raw: "1.250.000,50", locale: "vi-VN", want: "1250000.5"},
		{name: "currency symbol", raw: "₫ 300.000", locale: "vi-VN", want: "300000"},
		{name: "dollar sign", raw: "$1,234.56", locale: "en-US", want: "1234.56"},
		{name: "parentheses negative", raw: "(12.00)", locale: "en-US", want: "-12"},
		{name: "trailing minus", raw: "45,10-", locale: "de-DE", want: "-45.1"},
		{name: "empty", raw: "  ", locale: "en-US", wantErr: true},
		{name: "letters only", raw: "abc", locale: "en-US", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw, tt.locale)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "1250000", want: 125000000},
		{in: "-25.50", want: 2550},
		{in: "0.005", want: 1},
		{in: "19.994", want: 1999},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "1250000.00", FormatMinor(125000000))
	assert.Equal(t, "0.05", FormatMinor(5))
	assert.Equal(t, "-1.00", FormatMinor(-100))
}
