package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/partprice/internal/pricing"
)

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "rand with decimal comma", text: "R 150,00", want: "150"},
		{name: "rand with cents", text: "R 175,50", want: "175.5"},
		{name: "space thousands and decimal comma", text: "R 1 234,50", want: "1234.5"},
		{name: "non-breaking space thousands", text: "R\u00a012\u00a0499,99", want: "12499.99"},
		{name: "comma thousands and decimal dot", text: "ZAR 1,234.50", want: "1234.5"},
		{name: "dot thousands and decimal comma", text: "R1.234,50", want: "1234.5"},
		{name: "comma thousands only", text: "R 2,500", want: "2500"},
		{name: "repeated dot thousands", text: "R 1.234.567", want: "1234567"},
		{name: "lone dot thousands", text: "R 1.234", want: "1234"},
		{name: "lone comma thousands", text: "R 1,234", want: "1234"},
		{name: "dot thousands with decimal comma zeros", text: "R1.234,00", want: "1234"},
		{name: "zero lead keeps three decimals", text: "0.125", want: "0.125"},
		{name: "lone dot with two decimals", text: "R 1234.50", want: "1234.5"},
		{name: "long ungrouped integer with cents", text: "R 12499,99", want: "12499.99"},
		{name: "plain decimal", text: "99.95", want: "99.95"},
		{name: "symbol suffix", text: "45,00 €", want: "45"},
		{name: "dollar symbol", text: "$12.30", want: "12.3"},
		{name: "fullwidth digits", text: "R １５０", want: "150"},
		{name: "negative amount", text: "R -5,00", want: "-5"},
		{name: "surrounding whitespace", text: "\n\t R 80 \n", want: "80"},
		{name: "empty", text: "", want: "0"},
		{name: "currency only", text: "R", want: "0"},
		{name: "words", text: "Call for price", want: "0"},
		{name: "letters inside digits", text: "R 12abc34", want: "0"},
		{name: "trailing separator", text: "R 150,", want: "0"},
		{name: "double separator", text: "R 1,,5", want: "0"},
		{name: "uneven comma groups", text: "R 1,2,3", want: "0"},
		{name: "short trailing group", text: "R 1.234.56", want: "0"},
		{name: "oversized leading group", text: "R 1234.567,00", want: "0"},
		{name: "two decimal marks", text: "R 1,234.5.6", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := pricing.ParsePrice(tt.text)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "ParsePrice(%q) = %s, want %s", tt.text, got, tt.want)
		})
	}
}

func TestParsePrice_Deterministic(t *testing.T) {
	t.Parallel()

	first := pricing.ParsePrice("R 1 099,90")
	second := pricing.ParsePrice("R 1 099,90")
	assert.True(t, first.Equal(second))
}
