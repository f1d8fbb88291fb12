package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/semantic"
)

func TestThresholds_For(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, 0.60, th.For(model.IntentFinancialMetric, model.QueryContext{}))
	assert.Equal(t, 0.60, th.For(model.IntentMarketPrice, model.QueryContext{}))
	assert.Equal(t, 0.60, th.For(model.IntentUnknown, model.QueryContext{Metrics: []string{"total assets"}}))
	assert.Equal(t, 0.30, th.For(model.IntentConcept, model.QueryContext{}))
	assert.Equal(t, 0.30, th.For(model.IntentCompanyProfile, model.QueryContext{}))
	assert.Equal(t, 0.30, th.For(model.IntentPersonnel, model.QueryContext{}))
	assert.Equal(t, 0.45, th.For(model.IntentSummary, model.QueryContext{}))
	assert.Equal(t, 0.45, th.For(model.IntentUnknown, model.QueryContext{}))
}

func TestThresholds_WithDefaults(t *testing.T) {
	got := Thresholds{Numeric: 0.7, HybridFloor: 2}.withDefaults()
	assert.Equal(t, 0.7, got.Numeric)
	assert.Equal(t, 0.30, got.Descriptive)
	assert.Equal(t, 0.45, got.Default)
	assert.Equal(t, 0.5, got.HybridFloor)
	assert.Equal(t, 3, got.TopK)
}

func TestRender(t *testing.T) {
	doc := semantic.Document{Text: "Head Office: 12 Bourdillon Road, Ikoyi, Lagos."}

	text, conf := Render(semantic.Hit{Score: 0.9, Document: doc})
	assert.Equal(t, model.ConfidenceHigh, conf)
	assert.Equal(t, "According to my knowledge base: Head Office: 12 Bourdillon Road, Ikoyi, Lagos.", text)

	text, conf = Render(semantic.Hit{Score: 0.6, Document: doc})
	assert.Equal(t, model.ConfidenceMedium, conf)
	assert.Equal(t, "The closest match in my knowledge base is: Head Office: 12 Bourdillon Road, Ikoyi, Lagos.", text)

	text, conf = Render(semantic.Hit{Score: 0.35, Document: doc})
	assert.Equal(t, model.ConfidenceLow, conf)
	assert.Contains(t, text, "related record: Head Office")
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"metric": "total assets"}`, `"metric": "total assets".`},
		{"  Services:  [Stockbroking,  Asset valuation]  ", "Services: Stockbroking, Asset valuation."},
		{"Closed at ₦2.45", "Closed at ₦2.45."},
		{"Is it open?", "Is it open?"},
		{"list:", "list."},
		{"{}", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), tt.in)
	}
}

func TestInPeriod(t *testing.T) {
	hits := []semantic.Hit{
		{Score: 0.9, Document: semantic.Document{Text: "eps 2022", Kind: semantic.KindFinancial, Source: model.SourceRef{Date: "2022-12-31"}}},
		{Score: 0.8, Document: semantic.Document{Text: "eps 2021", Kind: semantic.KindFinancial, Source: model.SourceRef{Date: "2021-12-31"}}},
		{Score: 0.7, Document: semantic.Document{Text: "close 2024", Kind: semantic.KindMarket, Source: model.SourceRef{Date: "2024-10-01"}}},
		{Score: 0.6, Document: semantic.Document{Text: "profile", Kind: semantic.KindProfile}},
	}
	texts := func(hs []semantic.Hit) []string {
		var out []string
		for _, h := range hs {
			out = append(out, h.Document.Text)
		}
		return out
	}

	assert.Len(t, inPeriod(hits, model.QueryContext{}), 4)
	assert.Equal(t, []string{"eps 2021", "profile"}, texts(inPeriod(hits, model.QueryContext{TargetYear: 2021})))
	assert.Equal(t, []string{"eps 2022", "close 2024", "profile"}, texts(inPeriod(hits, model.QueryContext{Years: []int{2022, 2024}})))
	assert.Equal(t, []string{"profile"}, texts(inPeriod(hits, model.QueryContext{TargetYear: 2019})))
	assert.Len(t, hits, 4)
}
