package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOCCSymbol(t *testing.T) {
	testCases := []struct {
		name     string
		symbol   string
		expected OCCDetails
	}{
		{
			name:   "call with padded root",
			symbol: "AAPL  240621C00190000",
			expected: OCCDetails{
				Underlying: "AAPL",
				Expiry:     "2024-06-21",
				OptionType: "call",
				Strike:     190,
			},
		},
		{
			name:   "put with fractional strike",
			symbol: "F     241220P00012500",
			expected: OCCDetails{
				Underlying: "F",
				Expiry:     "2024-12-20",
				OptionType: "put",
				Strike:     12.5,
			},
		},
		{
			name:   "long root without padding",
			symbol: "GOOGL 250117C02500000",
			expected: OCCDetails{
				Underlying: "GOOGL",
				Expiry:     "2025-01-17",
				OptionType: "call",
				Strike:     2500,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			details, err := ParseOCCSymbol(tc.symbol)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, *details)
		})
	}
}

func TestParseOCCSymbol_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		symbol string
	}{
		{"empty", ""},
		{"too short", "AAPL"},
		{"no underlying", "      240621C00190000"},
		{"bad expiry", "AAPL  24ab21C00190000"},
		{"bad type", "AAPL  240621X00190000"},
		{"bad strike", "AAPL  240621C0019000x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOCCSymbol(tc.symbol)
			assert.Error(t, err)
		})
	}
}
