// Package kb loads knowledge-base snapshots: extracted financial reports,
// daily market prices and the free-form organisation profile.
package kb

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
)

// Snapshot is one loaded knowledge base. It is read-only after Load.
type Snapshot struct {
	Reports  []model.FinancialReport
	Market   []model.MarketRecord
	Profile  Profile
	Source   string
	LoadedAt time.Time
}

// Symbols returns every distinct instrument symbol, sorted.
func (s *Snapshot) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.Market {
		if !seen[m.Symbol] {
			seen[m.Symbol] = true
			out = append(out, m.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

// Prices returns the records for symbol ordered by price date ascending.
func (s *Snapshot) Prices(symbol string) []model.MarketRecord {
	var out []model.MarketRecord
	for _, m := range s.Market {
		if m.Symbol == symbol {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriceDate < out[j].PriceDate })
	return out
}

// LatestPrice returns the most recent record for symbol.
func (s *Snapshot) LatestPrice(symbol string) (model.MarketRecord, bool) {
	prices := s.Prices(symbol)
	if len(prices) == 0 {
		return model.MarketRecord{}, false
	}
	return prices[len(prices)-1], true
}

// PriceOn returns the record for symbol on an ISO date.
func (s *Snapshot) PriceOn(symbol, date string) (model.MarketRecord, bool) {
	for _, m := range s.Market {
		if m.Symbol == symbol && m.PriceDate == date {
			return m, true
		}
	}
	return model.MarketRecord{}, false
}

// FindSymbol returns the first record whose instrument name contains name,
// compared case-insensitively.
func (s *Snapshot) FindSymbol(name string) (model.MarketRecord, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return model.MarketRecord{}, false
	}
	for _, m := range s.Market {
		if m.SymbolName != "" && strings.Contains(strings.ToLower(m.SymbolName), name) {
			return m, true
		}
	}
	return model.MarketRecord{}, false
}

// Movers returns up to n records with a percentage move, largest gains first
// when gainers is set, largest losses first otherwise.
func (s *Snapshot) Movers(n int, gainers bool) []model.MarketRecord {
	var out []model.MarketRecord
	for _, m := range s.Market {
		if m.PercentMove != nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if gainers {
			return *out[i].PercentMove > *out[j].PercentMove
		}
		return *out[i].PercentMove < *out[j].PercentMove
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ReportDates returns the valid report dates ascending. Placeholder epoch
// dates written by the extractor are ignored.
func (s *Snapshot) ReportDates() []time.Time {
	var out []time.Time
	for _, r := range s.Reports {
		d, ok := metric.ParseDate(r.Date)
		if !ok || d.Year() <= 1970 {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// WithMarket returns a copy of the snapshot with extra market records
// appended. Records for an existing (symbol, date) replace the old ones.
func (s *Snapshot) WithMarket(extra []model.MarketRecord) *Snapshot {
	type key struct{ symbol, date string }
	pos := make(map[key]int, len(s.Market))
	market := make([]model.MarketRecord, 0, len(s.Market)+len(extra))
	for _, m := range append(append([]model.MarketRecord(nil), s.Market...), extra...) {
		k := key{m.Symbol, m.PriceDate}
		if i, ok := pos[k]; ok {
			market[i] = m
			continue
		}
		pos[k] = len(market)
		market = append(market, m)
	}
	cp := *s
	cp.Market = market
	return &cp
}
