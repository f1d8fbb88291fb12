package dispatch

import (
	"slices"
	"strings"

	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/semantic"
)

// Thresholds are the minimum semantic scores for answering from retrieval.
type Thresholds struct {
	// Descriptive applies to concept, profile and personnel questions.
	Descriptive float64 `mapstructure:"descriptive"`
	// Numeric applies to questions asking for a metric or price, where a
	// loose match would put a wrong number in the answer.
	Numeric float64 `mapstructure:"numeric"`
	// Default applies to everything else.
	Default float64 `mapstructure:"default"`
	// HybridFloor is the fraction of the threshold a near miss must reach to
	// be passed to the external brain as a fact.
	HybridFloor float64 `mapstructure:"hybrid_floor"`
	// TopK is the number of hits retrieved.
	TopK int `mapstructure:"top_k"`
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Descriptive: 0.30,
		Numeric:     0.60,
		Default:     0.45,
		HybridFloor: 0.5,
		TopK:        3,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.Descriptive <= 0 {
		t.Descriptive = d.Descriptive
	}
	if t.Numeric <= 0 {
		t.Numeric = d.Numeric
	}
	if t.Default <= 0 {
		t.Default = d.Default
	}
	if t.HybridFloor <= 0 || t.HybridFloor > 1 {
		t.HybridFloor = d.HybridFloor
	}
	if t.TopK <= 0 {
		t.TopK = d.TopK
	}
	return t
}

// For returns the threshold for a question's intent and parsed context.
func (t Thresholds) For(in model.Intent, qc model.QueryContext) float64 {
	switch {
	case in == model.IntentFinancialMetric || in == model.IntentMarketPrice || len(qc.Metrics) > 0:
		return t.Numeric
	case in == model.IntentConcept || in == model.IntentCompanyProfile || in == model.IntentPersonnel:
		return t.Descriptive
	default:
		return t.Default
	}
}

// Render turns a retrieved document into an answer sentence prefixed by a
// qualifier matching its confidence.
func Render(hit semantic.Hit) (string, model.Confidence) {
	conf := model.ConfidenceFromScore(hit.Score)
	text := Clean(hit.Document.Text)
	switch conf {
	case model.ConfidenceHigh:
		return "According to my knowledge base: " + text, conf
	case model.ConfidenceMedium:
		return "The closest match in my knowledge base is: " + text, conf
	default:
		return "I could not find an exact answer, but my knowledge base has this related record: " + text, conf
	}
}

// Clean strips structural characters from a document and ends it with
// punctuation.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', '[', ']':
			return ' '
		}
		return r
	}, text)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimRight(text, ",;: ")
	if text == "" {
		return text
	}
	if !strings.ContainsAny(text[len(text)-1:], ".!?") {
		text += "."
	}
	return text
}

// inPeriod drops dated financial and market hits outside the years a question
// asks about, so a missing year is never answered with another year's figure.
func inPeriod(hits []semantic.Hit, qc model.QueryContext) []semantic.Hit {
	years := qc.Years
	if qc.TargetYear != 0 {
		years = append(slices.Clone(years), qc.TargetYear)
	}
	if len(years) == 0 {
		return hits
	}
	kept := hits[:0:0]
	for _, h := range hits {
		if h.Document.Kind == semantic.KindFinancial || h.Document.Kind == semantic.KindMarket {
			if date, ok := metric.ParseDate(h.Document.Source.Date); ok && !slices.Contains(years, date.Year()) {
				continue
			}
		}
		kept = append(kept, h)
	}
	return kept
}
