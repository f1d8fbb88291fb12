package model

import "time"

// DateLayout is the ISO calendar date layout used by report and price dates.
const DateLayout = "2006-01-02"

// SourceRef identifies the document a value was read from.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	Date       string `json:"date"`
}

// MetricRecord is a single indexed metric value for one report date.
type MetricRecord struct {
	Key    string    `json:"metric_key"`
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Source SourceRef `json:"source_ref"`
}

// DateString returns the record date in ISO form.
func (r MetricRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// TimeSeriesPoint is the representative value of a metric for one year.
type TimeSeriesPoint struct {
	Year   int       `json:"year"`
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Source SourceRef `json:"source_ref"`
}

// DateString returns the point date in ISO form.
func (p TimeSeriesPoint) DateString() string {
	return p.Date.Format(DateLayout)
}

// Confidence grades how much a caller should trust an answer.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFromScore maps a similarity score in [0,1] to a confidence grade.
func ConfidenceFromScore(score float64) Confidence {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Resolution is the outcome of resolving a metric for a question.
type Resolution struct {
	Value              float64    `json:"value"`
	Date               time.Time  `json:"date"`
	Source             SourceRef  `json:"source_ref"`
	Confidence         Confidence `json:"confidence"`
	NeedsQualification bool       `json:"needs_qualification"`
	Qualifiers         []string   `json:"qualifiers,omitempty"`
}

// QueryContext holds the metric and time constraints parsed from one question.
type QueryContext struct {
	Metrics      []string `json:"matched_metric_names"`
	TargetYear   int      `json:"target_year,omitempty"`
	Quarter      int      `json:"quarter,omitempty"`
	Years        []int    `json:"years,omitempty"`
	IsComparison bool     `json:"is_comparison"`
	IsTrend      bool     `json:"is_trend"`
	PreferAnnual bool     `json:"prefer_annual"`
}

// HasMetric reports whether any registered metric was matched.
func (q QueryContext) HasMetric() bool {
	return len(q.Metrics) > 0
}
