package registry

// DefaultEntries returns the built-in metric vocabulary for bank
// financial statements. Statement amounts are recorded in thousands of naira.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Canonical: "total assets",
			Synonyms:  []string{"total asset", "total group assets", "assets", "balance sheet size"},
			Scaling:   ScalingThousands,
			ValueType: ValueCurrency,
		},
		{
			Canonical: "total liabilities",
			Synonyms:  []string{"total liability", "liabilities"},
			Scaling:   ScalingThousands,
			ValueType: ValueCurrency,
		},
		{
			Canonical: "total equity",
			Synonyms:  []string{"shareholders equity", "shareholders funds", "equity"},
			Scaling:   ScalingThousands,
			ValueType: ValueCurrency,
		},
		{
			Canonical:       "profit before tax",
			Synonyms:        []string{"pbt", "pre tax profit", "pretax profit", "profit before taxation", "profit"},
			Scaling:         ScalingThousands,
			ValueType:       ValueCurrency,
			AnnualPreferred: true,
		},
		{
			Canonical:       "profit after tax",
			Synonyms:        []string{"pat", "net profit", "profit for the year", "profit for the period", "profit after taxation"},
			Scaling:         ScalingThousands,
			ValueType:       ValueCurrency,
			AnnualPreferred: true,
		},
		{
			Canonical:       "gross earnings",
			Synonyms:        []string{"gross income", "gross revenue", "revenue", "turnover"},
			Scaling:         ScalingThousands,
			ValueType:       ValueCurrency,
			AnnualPreferred: true,
		},
		{
			Canonical:       "net revenue from funds",
			Synonyms:        []string{"net income from financing", "net revenue from financing"},
			Scaling:         ScalingThousands,
			ValueType:       ValueCurrency,
			AnnualPreferred: true,
		},
		{
			Canonical:       "credit impairment charges",
			Synonyms:        []string{"impairment charges", "credit impairment", "impairment charge", "loan loss provision"},
			Scaling:         ScalingThousands,
			ValueType:       ValueCurrency,
			AnnualPreferred: true,
		},
		{
			Canonical:       "operating expenses",
			Synonyms:        []string{"opex", "operating costs"},
			Scaling:         ScalingThousands,
			ValueType:       ValueCurrency,
			AnnualPreferred: true,
		},
		{
			Canonical: "financing and advances",
			Synonyms:  []string{"loans and advances", "financing to customers", "loans"},
			Scaling:   ScalingThousands,
			ValueType: ValueCurrency,
		},
		{
			Canonical: "customer deposits",
			Synonyms:  []string{"deposits from customers", "total deposits", "deposits"},
			Scaling:   ScalingThousands,
			ValueType: ValueCurrency,
		},
		{
			Canonical:       "earnings per share",
			Synonyms:        []string{"eps", "basic earnings per share"},
			Scaling:         ScalingRaw,
			ValueType:       ValuePerShare,
			AnnualPreferred: true,
		},
		{
			Canonical:       "return on equity",
			Synonyms:        []string{"roe"},
			Scaling:         ScalingRaw,
			ValueType:       ValueRatio,
			AnnualPreferred: true,
		},
		{
			Canonical:       "return on assets",
			Synonyms:        []string{"roa"},
			Scaling:         ScalingRaw,
			ValueType:       ValueRatio,
			AnnualPreferred: true,
		},
		{
			Canonical:       "cost to income ratio",
			Synonyms:        []string{"cost income ratio", "cir"},
			Scaling:         ScalingRaw,
			ValueType:       ValueRatio,
			AnnualPreferred: true,
		},
	}
}

// Default returns a registry over DefaultEntries.
func Default() *Registry {
	return New(DefaultEntries())
}
