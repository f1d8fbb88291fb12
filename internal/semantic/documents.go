package semantic

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/kb-resolver/internal/format"
	"github.com/sells-group/kb-resolver/internal/kb"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
)

// Document kinds.
const (
	KindFinancial = "financial"
	KindMarket    = "market"
	KindProfile   = "profile"
)

var sentenceRe = regexp.MustCompile(`[.!?]\s+`)

// BuildDocuments derives fact sentences from a snapshot: one per reported
// metric value, one per opening and closing price, and one per profile
// sentence. Identical texts are kept once, in first-seen order.
func BuildDocuments(snap *kb.Snapshot, reg *registry.Registry, org string) []Document {
	if snap == nil {
		return nil
	}
	var docs []Document
	seen := make(map[string]bool)
	add := func(d Document) {
		d.Text = strings.TrimSpace(d.Text)
		if d.Text == "" || seen[d.Text] {
			return
		}
		seen[d.Text] = true
		docs = append(docs, d)
	}

	for _, r := range snap.Reports {
		date, ok := metric.ParseDate(r.Date)
		if !ok || date.Year() <= 1970 {
			continue
		}
		day := date.Format(model.DateLayout)
		labels := make([]string, 0, len(r.Metrics))
		for label := range r.Metrics {
			if !strings.HasPrefix(label, "_") {
				labels = append(labels, label)
			}
		}
		sort.Strings(labels)
		for _, label := range labels {
			v, ok := metric.ParseValue(r.Metrics[label])
			if !ok {
				continue
			}
			display := format.Currency(v)
			name := label
			if e, ok := lookup(reg, label); ok {
				display = e.Display(v)
				name = e.Canonical
			}
			add(Document{
				Text:   fmt.Sprintf("As of %s, the %s for %s was %s.", day, name, org, display),
				Kind:   KindFinancial,
				Source: model.SourceRef{DocumentID: r.DocumentID, Date: day},
			})
		}
	}

	for _, m := range snap.Market {
		name := ""
		if m.SymbolName != "" {
			name = " (" + m.SymbolName + ")"
		}
		ref := model.SourceRef{DocumentID: "market_data:" + m.Symbol, Date: m.PriceDate}
		add(Document{
			Text:   fmt.Sprintf("On %s, %s%s closed at %s.", m.PriceDate, m.Symbol, name, format.Grouped(m.ClosingPrice)),
			Kind:   KindMarket,
			Source: ref,
		})
		if m.OpeningPrice > 0 {
			add(Document{
				Text:   fmt.Sprintf("On %s, %s%s opened at %s.", m.PriceDate, m.Symbol, name, format.Grouped(m.OpeningPrice)),
				Kind:   KindMarket,
				Source: ref,
			})
		}
	}

	for _, line := range snap.Profile.Lines() {
		for _, s := range SplitSentences(line) {
			add(Document{Text: s, Kind: KindProfile, Source: model.SourceRef{DocumentID: "client_profile"}})
		}
	}
	return docs
}

// SplitSentences splits text after sentence-ending punctuation.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	idx := sentenceRe.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(idx)+1)
	start := 0
	for _, loc := range idx {
		// Keep the punctuation, drop the whitespace.
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func lookup(reg *registry.Registry, label string) (registry.Entry, bool) {
	if reg == nil {
		return registry.Entry{}, false
	}
	return reg.Lookup(label)
}
