// Package analysis derives per-year series from the metric index and
// computes trend and comparison narratives over them.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kb-resolver/internal/model"
)

// ErrInsufficientData is returned when fewer than two years could be resolved
// for a comparison.
var ErrInsufficientData = eris.New("analysis: insufficient data for comparison")

// InsufficientDataMessage is the terminal answer for an unresolvable comparison.
const InsufficientDataMessage = "Insufficient data found for a comparative trend between the requested years."

// Source is the read side of the metric index used by Series.
type Source interface {
	Years(key string) []int
	BestInYear(key string, year int, preferAnnual bool) (model.MetricRecord, bool)
}

// Formatter renders a metric value for narrative text.
type Formatter func(v float64) string

// Series returns one representative point per year for key, ascending. A zero
// start or end leaves that side of the range open.
func Series(src Source, key string, startYear, endYear int, preferAnnual bool) []model.TimeSeriesPoint {
	var out []model.TimeSeriesPoint
	for _, y := range src.Years(key) {
		if startYear != 0 && y < startYear {
			continue
		}
		if endYear != 0 && y > endYear {
			continue
		}
		rec, ok := src.BestInYear(key, y, preferAnnual)
		if !ok {
			continue
		}
		out = append(out, model.TimeSeriesPoint{Year: y, Date: rec.Date, Value: rec.Value, Source: rec.Source})
	}
	return out
}

// SeriesForYears returns the representative point for each listed year that
// has data, ascending and de-duplicated.
func SeriesForYears(src Source, key string, years []int, preferAnnual bool) []model.TimeSeriesPoint {
	seen := make(map[int]bool, len(years))
	var out []model.TimeSeriesPoint
	for _, y := range sortedCopy(years) {
		if seen[y] {
			continue
		}
		seen[y] = true
		rec, ok := src.BestInYear(key, y, preferAnnual)
		if !ok {
			continue
		}
		out = append(out, model.TimeSeriesPoint{Year: y, Date: rec.Date, Value: rec.Value, Source: rec.Source})
	}
	return out
}

// Trend renders points as "<year>: <value> (recorded <date>)" joined by "; ".
func Trend(points []model.TimeSeriesPoint, f Formatter) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%d: %s (recorded %s)", p.Year, f(p.Value), p.DateString()))
	}
	return strings.Join(parts, "; ")
}

// Direction is the sign of a change between two points.
type Direction string

const (
	Increase Direction = "an increase"
	Decrease Direction = "a decrease"
	NoChange Direction = "no change"
)

// Comparison is the change between the oldest and newest point of a series.
type Comparison struct {
	Old       model.TimeSeriesPoint
	New       model.TimeSeriesPoint
	Delta     float64
	Pct       float64
	Direction Direction
	// FromZero is set when the old value is zero and Pct is undefined.
	FromZero bool
}

// Compare computes the change between the first and last point. It returns
// ErrInsufficientData when fewer than two points are available.
func Compare(points []model.TimeSeriesPoint) (Comparison, error) {
	if len(points) < 2 {
		return Comparison{}, ErrInsufficientData
	}
	c := Comparison{Old: points[0], New: points[len(points)-1]}
	c.Delta = c.New.Value - c.Old.Value
	switch {
	case c.Delta > 0:
		c.Direction = Increase
	case c.Delta < 0:
		c.Direction = Decrease
	default:
		c.Direction = NoChange
	}
	if c.Old.Value == 0 {
		c.FromZero = true
		return c, nil
	}
	c.Pct = c.Delta / math.Abs(c.Old.Value) * 100
	return c, nil
}

// Narrative renders a comparison sentence. display formats the two values;
// exact formats the absolute delta without unit abbreviation.
func (c Comparison) Narrative(metric string, display, exact Formatter) string {
	if c.FromZero {
		s := fmt.Sprintf("Comparing %s from %d to %d: The value went from ₦0 (as of %s) to %s (as of %s).",
			metric, c.Old.Year, c.New.Year, c.Old.DateString(), display(c.New.Value), c.New.DateString())
		if c.Direction == NoChange {
			s += " This represents no change."
		}
		return s
	}
	return fmt.Sprintf("Comparing %s between %d and %d: The value changed from %s (as of %s) to %s (as of %s). This represents %s of %s (%+.2f%%).",
		metric, c.Old.Year, c.New.Year,
		display(c.Old.Value), c.Old.DateString(),
		display(c.New.Value), c.New.DateString(),
		c.Direction, exact(math.Abs(c.Delta)), c.Pct)
}

func sortedCopy(years []int) []int {
	out := append([]int(nil), years...)
	sort.Ints(out)
	return out
}
