// Package engine implements the deterministic lookup engines tried by the
// dispatcher's structured stage. Every engine is a pure reader of an
// immutable Env and keeps no per-request state.
package engine

import (
	"context"
	"strings"

	"github.com/sells-group/kb-resolver/internal/kb"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
	"github.com/sells-group/kb-resolver/internal/valuation"
)

// Engine names, also used as provenance labels.
const (
	NameFinancial = "financial"
	NameMetadata  = "metadata"
	NamePersonnel = "personnel"
	NameMarket    = "market"
	NameProfile   = "profile"
	NameLocation  = "location"
	NameGeneral   = "general"
	NameSummary   = "summary"
)

// Engine answers the questions it recognises from the knowledge base.
type Engine interface {
	Name() string
	// Answer returns false when the engine has nothing to say.
	Answer(ctx context.Context, q Query) (Answer, bool)
}

// Query is one question as seen by the engines. It is built per request.
type Query struct {
	Text    string
	Lower   string
	Intent  model.Intent
	Context model.QueryContext
}

// NewQuery builds a Query from raw text, its intent and parsed constraints.
func NewQuery(text string, in model.Intent, qc model.QueryContext) Query {
	text = strings.TrimSpace(text)
	return Query{Text: text, Lower: strings.ToLower(text), Intent: in, Context: qc}
}

// has reports whether the lowercase question contains any of the phrases.
func (q Query) has(phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(q.Lower, p) {
			return true
		}
	}
	return false
}

// Answer is an engine's reply.
type Answer struct {
	Text       string
	Confidence model.Confidence
	Sources    []model.SourceRef
	// Terminal answers end the dispatch chain even though they carry no
	// value, e.g. a comparison with too little history.
	Terminal bool
}

// Env is the immutable knowledge base the engines read.
type Env struct {
	Snapshot *kb.Snapshot
	Index    *metric.Index
	Registry *registry.Registry
}

// Options names the organisations the knowledge base describes and tunes the
// engines.
type Options struct {
	// Organisation is the reporting entity of the financial statements.
	Organisation string `mapstructure:"organisation"`
	// Symbol is Organisation's market symbol, used for valuation ratios.
	Symbol string `mapstructure:"symbol"`
	// Firm is the organisation whose profile is loaded.
	Firm string `mapstructure:"firm"`
	// Assistant is the reply to identity questions.
	Assistant string `mapstructure:"assistant"`
	// ComplaintsEmail is used when the profile lists no complaints address.
	ComplaintsEmail string `mapstructure:"complaints_email"`
	// SummaryMetrics are the canonical metrics a financial summary covers.
	SummaryMetrics []string          `mapstructure:"summary_metrics"`
	Valuation      valuation.Filters `mapstructure:"valuation"`
}

// DefaultOptions returns the options for the bundled knowledge base.
func DefaultOptions() Options {
	return Options{
		Organisation:    "Jaiz Bank",
		Symbol:          "JAIZBANK",
		Firm:            "Skyview Capital Limited",
		Assistant:       "I am SkyCap AI, an intelligent financial assistant. I was developed by AMD ASCEND Solutions to provide high-speed financial and market analysis for Skyview Capital Limited.",
		ComplaintsEmail: "complaints@skyviewcapitalng.com",
		SummaryMetrics:  []string{"total assets", "gross earnings", "profit before tax", "profit after tax", "earnings per share"},
		Valuation:       valuation.DefaultFilters(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Organisation == "" {
		o.Organisation = d.Organisation
	}
	if o.Symbol == "" {
		o.Symbol = d.Symbol
	}
	if o.Firm == "" {
		o.Firm = d.Firm
	}
	if o.Assistant == "" {
		o.Assistant = d.Assistant
	}
	if o.ComplaintsEmail == "" {
		o.ComplaintsEmail = d.ComplaintsEmail
	}
	if len(o.SummaryMetrics) == 0 {
		o.SummaryMetrics = d.SummaryMetrics
	}
	return o
}

// All returns every engine in structured-lookup order.
func All(env Env, opts Options) []Engine {
	opts = opts.withDefaults()
	return []Engine{
		&Financial{env: env, opts: opts},
		&Metadata{env: env, opts: opts},
		&Personnel{env: env},
		&Market{env: env},
		&Profile{env: env, opts: opts},
		&Location{env: env, opts: opts},
		&General{env: env, opts: opts},
		&Summary{env: env, opts: opts},
	}
}

func high(text string, sources ...model.SourceRef) Answer {
	return Answer{Text: text, Confidence: model.ConfidenceHigh, Sources: sources}
}
