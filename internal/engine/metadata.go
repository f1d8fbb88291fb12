package engine

import (
	"context"
	"fmt"

	"github.com/sells-group/kb-resolver/internal/format"
)

// Metadata answers questions about the knowledge base itself.
type Metadata struct {
	env  Env
	opts Options
}

// Name implements Engine.
func (m *Metadata) Name() string { return NameMetadata }

// Answer implements Engine.
func (m *Metadata) Answer(_ context.Context, q Query) (Answer, bool) {
	snap := m.env.Snapshot
	if snap == nil {
		return Answer{}, false
	}

	switch {
	case q.has("how many") && q.has("report"):
		return high(fmt.Sprintf("There are %d financial reports available in the knowledge base, primarily covering %s's quarterly and annual financial statements.",
			len(snap.Reports), m.opts.Organisation)), true

	case q.has("how many") && q.has("market record", "price record", "market data", "stock record"):
		return high(fmt.Sprintf("There are %d market price records in the knowledge base, covering %d instruments.",
			len(snap.Market), len(snap.Symbols()))), true

	case q.has("date range", "period covered", "periods covered") && q.has("report"):
		dates := snap.ReportDates()
		if len(dates) == 0 {
			return high("The financial reports cover a date range of various dates."), true
		}
		return high(fmt.Sprintf("The financial reports cover a date range from %s to %s.",
			format.Date(dates[0]), format.Date(dates[len(dates)-1]))), true

	case q.has("type of report", "types of report", "kind of report", "kinds of report", "what reports"):
		return high(fmt.Sprintf("The knowledge base holds %s's quarterly and annual financial statements, %d reports in total, with %d indexed metric values.",
			m.opts.Organisation, len(snap.Reports), m.env.Index.Len())), true

	case q.has("data source", "data sources", "where does your data", "where do you get"):
		return high(fmt.Sprintf("My answers come from a knowledge base of %d financial reports, %d market price records and the %s company profile.",
			len(snap.Reports), len(snap.Market), m.opts.Firm)), true
	}
	return Answer{}, false
}
