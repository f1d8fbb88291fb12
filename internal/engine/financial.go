package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sells-group/kb-resolver/internal/analysis"
	"github.com/sells-group/kb-resolver/internal/format"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
	"github.com/sells-group/kb-resolver/internal/valuation"
)

var (
	pePhrases     = []string{"p/e", "pe ratio", "p e ratio", "price to earnings", "price-to-earnings", "price earnings"}
	latestPhrases = []string{"latest", "most recent", "current", "recent"}
	maxPhrases    = []string{"highest", "maximum", "max ", "peak", "largest"}
)

// Financial answers metric lookups, comparisons, trends and P/E ratios.
type Financial struct {
	env  Env
	opts Options
}

// Name implements Engine.
func (f *Financial) Name() string { return NameFinancial }

// Answer implements Engine.
func (f *Financial) Answer(_ context.Context, q Query) (Answer, bool) {
	if q.Intent == model.IntentSummary {
		return Answer{}, false
	}
	if q.has(pePhrases...) {
		return f.priceToEarnings(q)
	}
	if !q.Context.HasMetric() {
		return Answer{}, false
	}
	entry, ok := f.env.Registry.Lookup(q.Context.Metrics[0])
	if !ok {
		return Answer{}, false
	}

	qc := q.Context
	if qc.IsComparison && len(qc.Years) >= 2 {
		return f.compare(entry, qc)
	}
	if qc.IsTrend {
		if a, ok := f.trend(entry, qc); ok {
			return a, true
		}
	}
	return f.single(entry, q)
}

func (f *Financial) single(entry registry.Entry, q Query) (Answer, bool) {
	res, ok := f.env.Index.ResolveQuery(entry.Key(), q.Context)
	if !ok {
		return Answer{}, false
	}

	var text string
	if q.Context.TargetYear == 0 && q.Context.Quarter == 0 && q.has(latestPhrases...) {
		text = fmt.Sprintf("The latest %s for %s is %s (as of %s).",
			entry.Canonical, f.opts.Organisation, entry.Display(res.Value), format.Date(res.Date))
	} else {
		text = fmt.Sprintf("The %s for %s as of %s was %s.",
			entry.Canonical, f.opts.Organisation, format.Date(res.Date), entry.Display(res.Value))
	}
	if res.NeedsQualification {
		text += " Note: " + strings.Join(res.Qualifiers, "; ") + "."
	}
	return Answer{Text: text, Confidence: res.Confidence, Sources: []model.SourceRef{res.Source}}, true
}

func (f *Financial) compare(entry registry.Entry, qc model.QueryContext) (Answer, bool) {
	points := analysis.SeriesForYears(f.env.Index, entry.Key(), qc.Years, qc.PreferAnnual)
	c, err := analysis.Compare(points)
	if errors.Is(err, analysis.ErrInsufficientData) {
		return Answer{Text: analysis.InsufficientDataMessage, Confidence: model.ConfidenceLow, Terminal: true}, true
	}
	if err != nil {
		return Answer{}, false
	}
	return high(c.Narrative(entry.Canonical, entry.Display, entry.Exact), c.Old.Source, c.New.Source), true
}

func (f *Financial) trend(entry registry.Entry, qc model.QueryContext) (Answer, bool) {
	var start, end int
	switch len(qc.Years) {
	case 0:
	case 1:
		start = qc.Years[0]
	default:
		start, end = qc.Years[0], qc.Years[len(qc.Years)-1]
	}
	points := analysis.Series(f.env.Index, entry.Key(), start, end, qc.PreferAnnual)
	if len(points) == 0 {
		return Answer{}, false
	}
	sources := make([]model.SourceRef, 0, len(points))
	for _, p := range points {
		sources = append(sources, p.Source)
	}
	text := fmt.Sprintf("The %s trend for %s is: %s.", entry.Canonical, f.opts.Organisation, analysis.Trend(points, entry.Display))
	return high(text, sources...), true
}

func (f *Financial) priceToEarnings(q Query) (Answer, bool) {
	eps, ok := f.env.Registry.Lookup("earnings per share")
	if !ok || f.env.Snapshot == nil {
		return Answer{}, false
	}

	var epsPoints []valuation.Point
	for _, r := range f.env.Index.Records(eps.Key()) {
		epsPoints = append(epsPoints, valuation.Point{Date: r.Date, Value: r.Value})
	}
	var pricePoints []valuation.Point
	for _, m := range f.env.Snapshot.Prices(f.opts.Symbol) {
		d, ok := metric.ParseDate(m.PriceDate)
		if !ok {
			continue
		}
		pricePoints = append(pricePoints, valuation.Point{Date: d, Value: m.ClosingPrice})
	}

	recs := valuation.PriceToEarnings(epsPoints, pricePoints, f.opts.Valuation)
	var (
		rec   valuation.PERecord
		label string
	)
	switch {
	case q.has(maxPhrases...):
		rec, ok = valuation.Max(recs)
		label = "The highest P/E ratio"
	case q.Context.TargetYear != 0:
		rec, ok = valuation.InYear(recs, q.Context.TargetYear)
		label = fmt.Sprintf("The P/E ratio in %d", q.Context.TargetYear)
	default:
		rec, ok = valuation.Latest(recs)
		label = "The latest P/E ratio"
	}
	if !ok {
		return Answer{}, false
	}

	text := fmt.Sprintf("%s for %s was %s, based on a closing price of %s on %s and earnings per share of %s reported %s.",
		label, f.opts.Organisation, format.Multiple(rec.Ratio),
		format.Grouped(rec.Price), format.Date(rec.PriceDate),
		format.PerShare(rec.EPS), format.Date(rec.EPSDate))
	return high(text, model.SourceRef{DocumentID: "market_data", Date: format.Date(rec.PriceDate)}), true
}
