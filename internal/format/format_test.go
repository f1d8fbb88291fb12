package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrency_Units(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"trillion", 1_250_000_000_000, "₦1.250 Trillion"},
		{"billion", 1_081_000_000, "₦1.081 Billion"},
		{"million", 25_500_000, "₦25.500 Million"},
		{"small", 950, "₦950.00"},
		{"grouped below million", 250_000, "₦250,000.00"},
		{"negative billion", -1_886_000_000, "₦-1.886 Billion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.in))
		})
	}
}

func TestGrouped(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "₦500,000,000.00", Grouped(500_000_000))
}

func TestPerShare(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "₦0.3253", PerShare(0.3253))
}

func TestSignedPercent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "+50.00%", SignedPercent(50))
	assert.Equal(t, "-12.50%", SignedPercent(-12.5))
	assert.Equal(t, "+0.00%", SignedPercent(0))
}

func TestRatioAndMultiple(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12.34%", Ratio(12.34))
	assert.Equal(t, "50.00x", Multiple(50))
}

func TestDate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2024-09-30", Date(time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)))
}
