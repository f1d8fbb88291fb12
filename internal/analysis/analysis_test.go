package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kb-resolver/internal/format"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
)

func point(year int, d string, v float64) model.TimeSeriesPoint {
	t, _ := time.Parse(model.DateLayout, d)
	return model.TimeSeriesPoint{Year: year, Date: t, Value: v}
}

func testIndex() *metric.Index {
	rep := func(d string, v float64) model.FinancialReport {
		return model.FinancialReport{DocumentID: d + ".pdf", Date: d, Metrics: map[string]any{"total assets": v}}
	}
	return metric.BuildIndex([]model.FinancialReport{
		rep("2021-12-31", 900),
		rep("2022-09-30", 950),
		rep("2022-12-31", 1000),
		rep("2023-06-30", 1200),
		rep("2023-12-31", 1500),
		rep("2024-03-31", 1600),
	})
}

func TestSeries_OnePointPerYear(t *testing.T) {
	t.Parallel()

	pts := Series(testIndex(), "totalassets", 2022, 2023, true)
	require.Len(t, pts, 2)
	assert.Equal(t, 2022, pts[0].Year)
	assert.Equal(t, 1000.0, pts[0].Value)
	assert.Equal(t, 2023, pts[1].Year)
	assert.Equal(t, "2023-12-31", pts[1].DateString())
	assert.Equal(t, "2023-12-31.pdf", pts[1].Source.DocumentID)

	all := Series(testIndex(), "totalassets", 0, 0, false)
	assert.Len(t, all, 4)
	assert.Empty(t, Series(testIndex(), "missing", 0, 0, false))
}

func TestSeriesForYears(t *testing.T) {
	t.Parallel()

	pts := SeriesForYears(testIndex(), "totalassets", []int{2023, 2019, 2021, 2023}, false)
	require.Len(t, pts, 2)
	assert.Equal(t, 2021, pts[0].Year)
	assert.Equal(t, 2023, pts[1].Year)
}

func TestTrend(t *testing.T) {
	t.Parallel()

	got := Trend([]model.TimeSeriesPoint{
		point(2022, "2022-12-31", 1_000_000_000),
		point(2023, "2023-12-31", 1_500_000_000),
	}, format.Currency)
	assert.Equal(t, "2022: ₦1.000 Billion (recorded 2022-12-31); 2023: ₦1.500 Billion (recorded 2023-12-31)", got)
}

func TestCompare_Increase(t *testing.T) {
	t.Parallel()

	c, err := Compare([]model.TimeSeriesPoint{
		point(2022, "2022-12-31", 1_000_000_000),
		point(2023, "2023-12-31", 1_500_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, 500_000_000.0, c.Delta)
	assert.InDelta(t, 50.0, c.Pct, 1e-9)
	assert.Equal(t, Increase, c.Direction)

	text := c.Narrative("total assets", format.Currency, format.Grouped)
	assert.Contains(t, text, "2022")
	assert.Contains(t, text, "2023")
	assert.Contains(t, text, "an increase of ₦500,000,000.00")
	assert.Contains(t, text, "(+50.00%)")
}

func TestCompare_DecreaseUsesAbsoluteOld(t *testing.T) {
	t.Parallel()

	c, err := Compare([]model.TimeSeriesPoint{
		point(2022, "2022-12-31", -200),
		point(2023, "2023-12-31", -300),
	})
	require.NoError(t, err)
	assert.Equal(t, Decrease, c.Direction)
	assert.InDelta(t, -50.0, c.Pct, 1e-9)
	assert.Contains(t, c.Narrative("profit", format.Currency, format.Grouped), "a decrease of ₦100.00 (-50.00%)")
}

func TestCompare_NoChange(t *testing.T) {
	t.Parallel()

	c, err := Compare([]model.TimeSeriesPoint{
		point(2022, "2022-12-31", 700),
		point(2023, "2023-12-31", 700),
	})
	require.NoError(t, err)
	assert.Zero(t, c.Delta)
	assert.Equal(t, NoChange, c.Direction)
	assert.Contains(t, c.Narrative("x", format.Currency, format.Grouped), "no change")
}

func TestCompare_FromZero(t *testing.T) {
	t.Parallel()

	c, err := Compare([]model.TimeSeriesPoint{
		point(2022, "2022-12-31", 0),
		point(2023, "2023-12-31", 2_000_000),
	})
	require.NoError(t, err)
	assert.True(t, c.FromZero)
	assert.Zero(t, c.Pct)
	text := c.Narrative("credit impairment charges", format.Currency, format.Grouped)
	assert.Contains(t, text, "went from ₦0")
	assert.Contains(t, text, "₦2.000 Million")
	assert.NotContains(t, text, "NaN")
	assert.NotContains(t, text, "Inf")
}

func TestCompare_Insufficient(t *testing.T) {
	t.Parallel()

	_, err := Compare([]model.TimeSeriesPoint{point(2023, "2023-12-31", 1)})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Compare(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
