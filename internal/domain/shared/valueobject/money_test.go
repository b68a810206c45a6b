package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOutstanding(t *testing.T) {
	tests := []struct {
		name  string
		final string
		paid  string
		want  string
	}{
		{"nothing paid", "500", "0", "500"},
		{"partial", "300", "100", "200"},
		{"overpaid floors at zero", "300", "350", "0"},
		{"settled", "300", "300", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Outstanding(decimal.RequireFromString(tt.final), decimal.RequireFromString(tt.paid))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestDiffersBy(t *testing.T) {
	base := decimal.RequireFromString("150.00")

	assert.False(t, DiffersBy(base, decimal.RequireFromString("150.009")))
	assert.True(t, DiffersBy(base, decimal.RequireFromString("150.01")))
	assert.True(t, DiffersBy(base, decimal.RequireFromString("149.99")))
}

func TestDecimalToCents_RoundsHalfAway(t *testing.T) {
	assert.Equal(t, int64(1001), DecimalToCents(decimal.RequireFromString("10.005")))
	assert.True(t, CentsToDecimal(1001).Equal(decimal.RequireFromString("10.01")))
}
