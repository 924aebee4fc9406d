package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii", "1200000", "1200000"},
		{"ascii with commas", "1,200,000", "1200000"},
		{"persian digits", "۱۲۳۴۵", "12345"},
		{"persian digits with separator", "۱٬۲۰۰٬۰۰۰", "1200000"},
		{"arabic indic digits", "٧٥٠", "750"},
		{"arabic comma separator", "1،500", "1500"},
		{"spaces", " 2 500 ", "2500"},
		{"decimal point", "10.50", "10.50"},
		{"arabic decimal separator", "۱۰٫۵", "10.5"},
		{"negative", "-42", "-42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("۱٬۲۰۰٬۰۰۰")
	require.NoError(t, err)
	assert.Equal(t, "1200000", d.String())

	d, err = Parse("1,234.56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", d.String())
}

func TestParseRejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "12x", "1.2.3"} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParsePositive(t *testing.T) {
	d, err := ParsePositive("500")
	require.NoError(t, err)
	assert.Equal(t, "500", d.String())

	_, err = ParsePositive("0")
	assert.Error(t, err)

	_, err = ParsePositive("-10")
	assert.Error(t, err)
}
