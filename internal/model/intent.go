package model

// Intent is the query category assigned to a question before dispatch.
type Intent string

const (
	IntentConcept         Intent = "CONCEPT"
	IntentNews            Intent = "NEWS"
	IntentMarketPrice     Intent = "MARKET_PRICE"
	IntentFinancialMetric Intent = "FINANCIAL_METRIC"
	IntentPersonnel       Intent = "PERSONNEL"
	IntentCompanyProfile  Intent = "COMPANY_PROFILE"
	IntentSummary         Intent = "SUMMARY"
	IntentUnknown         Intent = "UNKNOWN"
)

// AllIntents returns every intent in classifier priority order.
func AllIntents() []Intent {
	return []Intent{
		IntentConcept,
		IntentNews,
		IntentMarketPrice,
		IntentFinancialMetric,
		IntentPersonnel,
		IntentCompanyProfile,
		IntentSummary,
		IntentUnknown,
	}
}

// IsValid reports whether the intent is one of the defined categories.
func (i Intent) IsValid() bool {
	for _, v := range AllIntents() {
		if i == v {
			return true
		}
	}
	return false
}
