package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/kb-resolver/internal/format"
	"github.com/sells-group/kb-resolver/internal/model"
)

// Summary renders the latest value of each configured headline metric.
type Summary struct {
	env  Env
	opts Options
}

// Name implements Engine.
func (s *Summary) Name() string { return NameSummary }

// Answer implements Engine.
func (s *Summary) Answer(_ context.Context, q Query) (Answer, bool) {
	if q.Intent != model.IntentSummary && !(q.has("summary", "summarise", "summarize", "overview") && q.has("financial", "performance")) {
		return Answer{}, false
	}

	var (
		parts []string
		refs  []model.SourceRef
	)
	for _, name := range s.opts.SummaryMetrics {
		entry, ok := s.env.Registry.Lookup(name)
		if !ok {
			continue
		}
		rec, ok := s.env.Index.Resolve(entry.Key(), 0, 0, entry.AnnualPreferred)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s of %s (as of %s)", entry.Canonical, entry.Display(rec.Value), format.Date(rec.Date)))
		refs = append(refs, rec.Source)
	}
	if len(parts) == 0 {
		return Answer{}, false
	}
	text := fmt.Sprintf("Financial summary for %s based on the latest available figures: %s.", s.opts.Organisation, strings.Join(parts, "; "))
	return high(text, refs...), true
}
