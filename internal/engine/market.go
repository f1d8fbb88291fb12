package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/kb-resolver/internal/format"
	"github.com/sells-group/kb-resolver/internal/intent"
	"github.com/sells-group/kb-resolver/internal/model"
)

var (
	tickerRe    = regexp.MustCompile(`\b[A-Z][A-Z0-9]{2,11}\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dayMonthRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\s*,?\s+(\d{4})\b`)
	monthDayRe  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\s*,?\s+(\d{4})\b`)
	correspRe   = regexp.MustCompile(`corresponds to ['"](.+?)['"]`)
	symbolForRe = regexp.MustCompile(`(?:symbol|ticker) (?:for|of) (.+?)\s*\??$`)
	topNRe      = regexp.MustCompile(`\btop (\d{1,2})\b`)
)

const defaultMovers = 3

// Market answers price, symbol and movers questions from market data.
type Market struct {
	env Env
}

// Name implements Engine.
func (m *Market) Name() string { return NameMarket }

// Answer implements Engine.
func (m *Market) Answer(_ context.Context, q Query) (Answer, bool) {
	snap := m.env.Snapshot
	if snap == nil || len(snap.Market) == 0 {
		return Answer{}, false
	}

	if q.Intent == model.IntentMarketPrice || intent.AsksPrice(q.Text) {
		if symbol, ok := m.knownSymbol(q.Text); ok {
			if a, ok := m.price(q, symbol); ok {
				return a, true
			}
		}
	}
	if a, ok := m.symbolFor(q); ok {
		return a, true
	}
	return m.movers(q)
}

// knownSymbol returns the first uppercase token that is a symbol present in
// market data.
func (m *Market) knownSymbol(text string) (string, bool) {
	known := make(map[string]bool)
	for _, s := range m.env.Snapshot.Symbols() {
		known[s] = true
	}
	for _, tok := range tickerRe.FindAllString(text, -1) {
		if known[tok] {
			return tok, true
		}
	}
	return "", false
}

func (m *Market) price(q Query, symbol string) (Answer, bool) {
	kind := "closing"
	if q.has("open") {
		kind = "opening"
	}

	if date, ok := ParseDayDate(q.Lower); ok {
		day := date.Format(model.DateLayout)
		rec, ok := m.env.Snapshot.PriceOn(symbol, day)
		if !ok {
			return Answer{}, false
		}
		text := fmt.Sprintf("The %s price for %s on %s was %s.", kind, symbol, day, format.Grouped(pick(rec, kind)))
		return high(text, marketRef(rec)), true
	}

	rec, ok := m.env.Snapshot.LatestPrice(symbol)
	if !ok {
		return Answer{}, false
	}
	text := fmt.Sprintf("The most recent %s price for %s on %s was %s.", kind, symbol, rec.PriceDate, format.Grouped(pick(rec, kind)))
	return high(text, marketRef(rec)), true
}

func (m *Market) symbolFor(q Query) (Answer, bool) {
	if !q.has("symbol", "ticker") {
		return Answer{}, false
	}
	var name string
	if mm := correspRe.FindStringSubmatch(q.Lower); mm != nil {
		name = mm[1]
	} else if mm := symbolForRe.FindStringSubmatch(q.Lower); mm != nil {
		name = strings.Trim(mm[1], `'". `)
	}
	if name == "" {
		return Answer{}, false
	}
	rec, ok := m.env.Snapshot.FindSymbol(name)
	if !ok {
		return Answer{
			Text:       fmt.Sprintf("I could not find a stock symbol corresponding to '%s'.", name),
			Confidence: model.ConfidenceMedium,
		}, true
	}
	return high(fmt.Sprintf("The stock symbol for %s is %s.", rec.SymbolName, rec.Symbol), marketRef(rec)), true
}

func (m *Market) movers(q Query) (Answer, bool) {
	gainers := q.has("gain") && q.has("top", "highest", "biggest", "best")
	losers := q.has("loser", "decliner") && q.has("top", "biggest", "worst")
	if !gainers && !losers {
		return Answer{}, false
	}

	n := defaultMovers
	if mm := topNRe.FindStringSubmatch(q.Lower); mm != nil {
		if v, err := strconv.Atoi(mm[1]); err == nil && v > 0 {
			n = v
		}
	}
	recs := m.env.Snapshot.Movers(n, gainers)
	if len(recs) == 0 {
		return Answer{}, false
	}

	parts := make([]string, 0, len(recs))
	refs := make([]model.SourceRef, 0, len(recs))
	for _, r := range recs {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Symbol, format.SignedPercent(*r.PercentMove)))
		refs = append(refs, marketRef(r))
	}
	label := "gainers"
	if !gainers {
		label = "losers"
	}
	text := fmt.Sprintf("The top %d market %s were: %s.", len(recs), label, strings.Join(parts, ", "))
	return high(text, refs...), true
}

// ParseDayDate finds a calendar date in lowercase text, either ISO
// ("2024-01-05") or spelled out ("5th january 2024", "january 5, 2024").
func ParseDayDate(lower string) (time.Time, bool) {
	if mm := isoDateRe.FindString(lower); mm != "" {
		if t, err := time.Parse(model.DateLayout, mm); err == nil {
			return t, true
		}
	}
	var day, month, year string
	if mm := dayMonthRe.FindStringSubmatch(lower); mm != nil {
		day, month, year = mm[1], mm[2], mm[3]
	} else if mm := monthDayRe.FindStringSubmatch(lower); mm != nil {
		month, day, year = mm[1], mm[2], mm[3]
	} else {
		return time.Time{}, false
	}
	t, err := time.Parse("2 January 2006", day+" "+strings.ToUpper(month[:1])+month[1:]+" "+year)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func pick(rec model.MarketRecord, kind string) float64 {
	if kind == "opening" {
		return rec.OpeningPrice
	}
	return rec.ClosingPrice
}

func marketRef(rec model.MarketRecord) model.SourceRef {
	return model.SourceRef{DocumentID: "market_data:" + rec.Symbol, Date: rec.PriceDate}
}
