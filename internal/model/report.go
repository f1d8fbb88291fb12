package model

// FinancialReport is one extracted financial statement: a dated set of
// metric label to value pairs. Values are left untyped because the extraction
// pipeline emits numbers, numeric strings and absence markers side by side.
type FinancialReport struct {
	DocumentID string         `json:"document_id"`
	Date       string         `json:"report_date"`
	Metrics    map[string]any `json:"metrics"`
	// Reasons records why a metric is intentionally absent.
	Reasons map[string]string `json:"extraction_reasons,omitempty"`
}

// MarketRecord is one daily price row for a listed instrument.
type MarketRecord struct {
	Symbol       string   `json:"symbol"`
	SymbolName   string   `json:"symbolname,omitempty"`
	PriceDate    string   `json:"pricedate"`
	OpeningPrice float64  `json:"openingprice"`
	ClosingPrice float64  `json:"closingprice"`
	PercentMove  *float64 `json:"pcent,omitempty"`
}
