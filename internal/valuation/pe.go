// Package valuation computes guarded price-to-earnings ratios by aligning
// per-share earnings with market closing prices.
package valuation

import (
	"sort"
	"time"
)

// Default guard values.
const (
	DefaultMinEPS   = 0.01
	DefaultMaxRatio = 150.0
)

// Point is a dated value: an EPS figure or a closing price.
type Point struct {
	Date  time.Time
	Value float64
}

// Filters guard the ratio against near-zero earnings and outliers.
type Filters struct {
	MinEPS   float64 `mapstructure:"min_eps" yaml:"min_eps"`
	MaxRatio float64 `mapstructure:"max_ratio" yaml:"max_ratio"`
}

// DefaultFilters returns the built-in guard values.
func DefaultFilters() Filters {
	return Filters{MinEPS: DefaultMinEPS, MaxRatio: DefaultMaxRatio}
}

func (f Filters) withDefaults() Filters {
	if f.MinEPS <= 0 {
		f.MinEPS = DefaultMinEPS
	}
	if f.MaxRatio <= 0 {
		f.MaxRatio = DefaultMaxRatio
	}
	return f
}

// PERecord is one accepted earnings/price pair.
type PERecord struct {
	EPS       float64
	EPSDate   time.Time
	Price     float64
	PriceDate time.Time
	Ratio     float64
}

// PriceToEarnings pairs each qualifying EPS point with the first price on or
// after its date, or the last price when none follows, and keeps pairs whose
// ratio lies in (0, MaxRatio]. The result is ordered by EPS date.
func PriceToEarnings(eps, prices []Point, f Filters) []PERecord {
	f = f.withDefaults()
	if len(prices) == 0 {
		return nil
	}

	ps := make([]Point, len(prices))
	copy(ps, prices)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Date.Before(ps[j].Date) })

	es := make([]Point, len(eps))
	copy(es, eps)
	sort.Slice(es, func(i, j int) bool { return es[i].Date.Before(es[j].Date) })

	var out []PERecord
	for _, e := range es {
		if e.Value < f.MinEPS {
			continue
		}
		price := alignPrice(ps, e.Date)
		ratio := price.Value / e.Value
		if ratio <= 0 || ratio > f.MaxRatio {
			continue
		}
		out = append(out, PERecord{
			EPS:       e.Value,
			EPSDate:   e.Date,
			Price:     price.Value,
			PriceDate: price.Date,
			Ratio:     ratio,
		})
	}
	return out
}

// alignPrice returns the first price dated on or after d, else the last price.
// ps must be sorted ascending and non-empty.
func alignPrice(ps []Point, d time.Time) Point {
	i := sort.Search(len(ps), func(i int) bool { return !ps[i].Date.Before(d) })
	if i < len(ps) {
		return ps[i]
	}
	return ps[len(ps)-1]
}

// Max returns the record with the highest ratio.
func Max(recs []PERecord) (PERecord, bool) {
	if len(recs) == 0 {
		return PERecord{}, false
	}
	best := recs[0]
	for _, r := range recs[1:] {
		if r.Ratio > best.Ratio {
			best = r
		}
	}
	return best, true
}

// InYear returns the latest qualifying record whose EPS date falls in year.
func InYear(recs []PERecord, year int) (PERecord, bool) {
	var (
		out   PERecord
		found bool
	)
	for _, r := range recs {
		if r.EPSDate.Year() != year {
			continue
		}
		if !found || r.EPSDate.After(out.EPSDate) {
			out, found = r, true
		}
	}
	return out, found
}

// Latest returns the record with the most recent EPS date.
func Latest(recs []PERecord) (PERecord, bool) {
	if len(recs) == 0 {
		return PERecord{}, false
	}
	best := recs[0]
	for _, r := range recs[1:] {
		if r.EPSDate.After(best.EPSDate) {
			best = r
		}
	}
	return best, true
}
