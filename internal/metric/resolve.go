package metric

import (
	"fmt"
	"time"

	"github.com/sells-group/kb-resolver/internal/model"
)

// QuarterMonth maps a quarter number to the month its reporting period ends.
// It returns 0 for anything outside 1-4.
func QuarterMonth(quarter int) time.Month {
	switch quarter {
	case 1:
		return time.March
	case 2:
		return time.June
	case 3:
		return time.September
	case 4:
		return time.December
	}
	return 0
}

// Resolve selects the single best record for key.
//
// With a year, only that year's records are candidates and no other year is
// ever substituted. A quarter whose closing month is present wins outright.
// Otherwise candidates are ranked by (annual boost, non-zero boost, month
// rank, date). With neither year nor quarter the most recent record wins.
func (idx *Index) Resolve(key string, year, quarter int, preferAnnual bool) (model.MetricRecord, bool) {
	candidates := idx.byKey[key]
	if len(candidates) == 0 {
		return model.MetricRecord{}, false
	}

	if year == 0 && quarter == 0 {
		return candidates[len(candidates)-1], true
	}

	if year != 0 {
		candidates = inYear(candidates, year)
		if len(candidates) == 0 {
			return model.MetricRecord{}, false
		}
	}

	if m := QuarterMonth(quarter); m != 0 {
		// Candidates are date-ascending; the latest day in the month wins.
		for i := len(candidates) - 1; i >= 0; i-- {
			if candidates[i].Date.Month() == m {
				return candidates[i], true
			}
		}
	}

	if year == 0 {
		return candidates[len(candidates)-1], true
	}
	return best(candidates, preferAnnual), true
}

// BestInYear returns the representative record for one year using the same
// ranking as Resolve without a quarter.
func (idx *Index) BestInYear(key string, year int, preferAnnual bool) (model.MetricRecord, bool) {
	return idx.Resolve(key, year, 0, preferAnnual)
}

// ResolveQuery resolves key for a parsed question and grades the result.
// A zero value, or a requested quarter that had to be replaced by another
// period, downgrades confidence to medium and adds a qualifier.
func (idx *Index) ResolveQuery(key string, q model.QueryContext) (model.Resolution, bool) {
	rec, ok := idx.Resolve(key, q.TargetYear, q.Quarter, q.PreferAnnual)
	if !ok {
		return model.Resolution{}, false
	}

	res := model.Resolution{
		Value:      rec.Value,
		Date:       rec.Date,
		Source:     rec.Source,
		Confidence: model.ConfidenceHigh,
	}
	if rec.Value == 0 {
		res.NeedsQualification = true
		res.Qualifiers = append(res.Qualifiers, "the reported value is zero, which may indicate a reporting gap")
	}
	if m := QuarterMonth(q.Quarter); m != 0 && rec.Date.Month() != m {
		res.NeedsQualification = true
		res.Qualifiers = append(res.Qualifiers,
			fmt.Sprintf("no Q%d figure was found, so the closest available period (%s) is shown", q.Quarter, rec.DateString()))
	}
	if res.NeedsQualification {
		res.Confidence = model.ConfidenceMedium
	}
	return res, true
}

func inYear(recs []model.MetricRecord, year int) []model.MetricRecord {
	var out []model.MetricRecord
	for _, r := range recs {
		if r.Date.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// rank is the lexicographic tie-break tuple for one candidate.
type rank struct {
	annual  int
	nonzero int
	month   int
	date    time.Time
}

func rankOf(r model.MetricRecord, preferAnnual bool) rank {
	k := rank{date: r.Date, month: monthRank(r.Date.Month())}
	if preferAnnual && r.Date.Month() == time.December {
		k.annual = 1
	}
	if r.Value != 0 {
		k.nonzero = 1
	}
	return k
}

func (a rank) less(b rank) bool {
	if a.annual != b.annual {
		return a.annual < b.annual
	}
	if a.nonzero != b.nonzero {
		return a.nonzero < b.nonzero
	}
	if a.month != b.month {
		return a.month < b.month
	}
	return a.date.Before(b.date)
}

func monthRank(m time.Month) int {
	switch m {
	case time.December:
		return 4
	case time.September:
		return 3
	case time.June:
		return 2
	case time.March:
		return 1
	}
	return 0
}

func best(recs []model.MetricRecord, preferAnnual bool) model.MetricRecord {
	winner := recs[0]
	wr := rankOf(winner, preferAnnual)
	for _, r := range recs[1:] {
		if rr := rankOf(r, preferAnnual); wr.less(rr) {
			winner, wr = r, rr
		}
	}
	return winner
}
