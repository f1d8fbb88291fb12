package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/kb-resolver/internal/registry"
)

func TestParseQuery(t *testing.T) {
	t.Parallel()
	reg := registry.Default()

	tests := []struct {
		name         string
		question     string
		metric       string
		year         int
		years        []int
		quarter      int
		comparison   bool
		trend        bool
		preferAnnual bool
	}{
		{
			name:     "single year",
			question: "What were the total assets in 2023?",
			metric:   "total assets", year: 2023, years: []int{2023},
		},
		{
			name:     "q token",
			question: "Total assets for Q3 2024",
			metric:   "total assets", year: 2024, years: []int{2024}, quarter: 3,
		},
		{
			name:     "quarter words",
			question: "What was the PBT in the third quarter of 2024?",
			metric:   "profit before tax", year: 2024, years: []int{2024}, quarter: 3, preferAnnual: true,
		},
		{
			name:     "half year",
			question: "Gross earnings for the half-year 2022",
			metric:   "gross earnings", year: 2022, years: []int{2022}, quarter: 2, preferAnnual: true,
		},
		{
			name:     "comparison",
			question: "Compare total assets between 2023 and 2022",
			metric:   "total assets", year: 2023, years: []int{2022, 2023}, comparison: true,
		},
		{
			name:     "versus",
			question: "EPS 2021 vs 2023",
			metric:   "earnings per share", year: 2021, years: []int{2021, 2023}, comparison: true, preferAnnual: true,
		},
		{
			name:     "trend range",
			question: "Show total assets from 2020 to 2023",
			metric:   "total assets", year: 2020, years: []int{2020, 2023}, trend: true,
		},
		{
			name:     "annual phrasing",
			question: "Full-year total assets 2023",
			metric:   "total assets", year: 2023, years: []int{2023}, preferAnnual: true,
		},
		{
			name:     "no metric",
			question: "Who is the managing director?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.question, reg)
			if tt.metric == "" {
				assert.False(t, q.HasMetric())
			} else {
				assert.Equal(t, tt.metric, q.Metrics[0])
			}
			assert.Equal(t, tt.year, q.TargetYear)
			assert.Equal(t, tt.years, q.Years)
			assert.Equal(t, tt.quarter, q.Quarter)
			assert.Equal(t, tt.comparison, q.IsComparison)
			assert.Equal(t, tt.trend, q.IsTrend)
			assert.Equal(t, tt.preferAnnual, q.PreferAnnual)
		})
	}
}

func TestParseQuery_TrendWords(t *testing.T) {
	t.Parallel()

	q := ParseQuery("What is the historical trend of gross earnings?", registry.Default())
	assert.True(t, q.IsTrend)
	assert.False(t, q.IsComparison)
	assert.Zero(t, q.TargetYear)
}
