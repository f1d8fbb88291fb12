// Package metric indexes dated financial-statement values and resolves the
// best record for a metric under year and quarter constraints.
package metric

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
)

// Index maps (normalized metric key, report date) to a single value. An Index
// is immutable after BuildIndex returns and is safe for concurrent reads.
type Index struct {
	byKey map[string][]model.MetricRecord
	dates []time.Time
	count int
}

type indexKey struct {
	key  string
	date time.Time
}

// BuildIndex indexes every numeric metric in reports. Labels are normalized
// with registry.NormalizeKey. Non-numeric values, absence markers and reports
// without a parseable date are skipped. A later report overwrites an earlier
// one for the same key and date.
func BuildIndex(reports []model.FinancialReport) *Index {
	values := make(map[indexKey]model.MetricRecord)
	dateSet := make(map[time.Time]bool)
	skipped := 0

	for _, rep := range reports {
		date, ok := ParseDate(rep.Date)
		if !ok {
			skipped++
			continue
		}
		for label, raw := range rep.Metrics {
			if strings.HasPrefix(label, "_") {
				continue
			}
			key := registry.NormalizeKey(label)
			if key == "" {
				continue
			}
			v, ok := ParseValue(raw)
			if !ok {
				continue
			}
			values[indexKey{key: key, date: date}] = model.MetricRecord{
				Key:    key,
				Date:   date,
				Value:  v,
				Source: model.SourceRef{DocumentID: rep.DocumentID, Date: date.Format(model.DateLayout)},
			}
			dateSet[date] = true
		}
	}

	idx := &Index{byKey: make(map[string][]model.MetricRecord)}
	for k, rec := range values {
		idx.byKey[k.key] = append(idx.byKey[k.key], rec)
	}
	for _, recs := range idx.byKey {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	}
	for d := range dateSet {
		idx.dates = append(idx.dates, d)
	}
	sort.Slice(idx.dates, func(i, j int) bool { return idx.dates[i].Before(idx.dates[j]) })
	idx.count = len(values)

	if skipped > 0 {
		zap.L().Debug("metric: skipped reports without a usable date", zap.Int("count", skipped))
	}
	return idx
}

// Len returns the number of indexed (key, date) values.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.count
}

// Keys returns every indexed metric key in sorted order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.byKey))
	for k := range idx.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dates returns every distinct report date that contributed a value, ascending.
func (idx *Index) Dates() []time.Time {
	out := make([]time.Time, len(idx.dates))
	copy(out, idx.dates)
	return out
}

// Records returns the records for key ordered by date ascending.
func (idx *Index) Records(key string) []model.MetricRecord {
	recs := idx.byKey[key]
	out := make([]model.MetricRecord, len(recs))
	copy(out, recs)
	return out
}

// Value returns the value stored for key on date.
func (idx *Index) Value(key string, date time.Time) (float64, bool) {
	for _, r := range idx.byKey[key] {
		if r.Date.Equal(date) {
			return r.Value, true
		}
	}
	return 0, false
}

// Years returns the distinct years with at least one record for key, ascending.
func (idx *Index) Years(key string) []int {
	var years []int
	last := 0
	for _, r := range idx.byKey[key] {
		if y := r.Date.Year(); y != last {
			years = append(years, y)
			last = y
		}
	}
	return years
}

// ParseDate reads an ISO date, tolerating a trailing time component.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseValue converts an extracted metric value to a number. It accepts
// numeric types, json.Number and numeric strings with thousands separators,
// currency symbols or accounting-style parentheses for negatives.
func ParseValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return parseNumericString(v)
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", "₦", "", "NGN", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
