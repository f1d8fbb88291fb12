package intent

// Vocabulary for the built-in rules. Phrases are matched as whole words.
var (
	definitionalPhrases = []string{
		"what is", "what are", "whats", "what does", "define", "definition of",
		"explain", "meaning of", "what is meant by", "describe the concept",
	}

	// ConceptTerms is the glossary of general finance concepts that a
	// definitional question may ask about.
	ConceptTerms = []string{
		"earnings per share", "eps", "price to earnings", "p e ratio", "pe ratio",
		"return on equity", "roe", "return on assets", "roa", "dividend yield",
		"dividend", "market capitalisation", "market capitalization", "market cap",
		"portfolio diversification", "diversification", "dollar cost averaging",
		"asset allocation", "compound interest", "bull market", "bear market",
		"inflation", "interest rate", "bond", "bonds", "treasury bill", "treasury bills",
		"mutual fund", "mutual funds", "etf", "exchange traded fund", "ipo",
		"initial public offering", "rights issue", "liquidity", "volatility", "hedging",
		"derivative", "derivatives", "stock split", "blue chip", "equity",
		"sukuk", "islamic banking", "non interest banking", "profit sharing investment account",
		"cost to income ratio", "net interest margin", "capital adequacy ratio",
		"book value", "gross earnings", "profit before tax", "impairment",
		"balance sheet", "income statement", "cash flow", "stock exchange", "ngx",
		"retained earnings", "working capital", "leverage", "beta",
	}

	// anchorPhrases tie a question to this knowledge base's data rather than
	// to a general definition.
	anchorPhrases = []string{
		"latest", "current", "currently", "recent", "today", "this year", "last year",
		"reported", "as of", "q1", "q2", "q3", "q4", "quarter",
	}

	newsPhrases = []string{
		"latest news", "news", "market update", "market updates", "headlines",
		"breaking", "what happened today", "todays market", "current events",
		"market news", "press release",
	}

	pricePhrases = []string{
		"price", "prices", "share price", "stock price", "closing", "closed",
		"close", "opening", "opened", "open price", "trading at", "traded at",
		"quote", "worth",
	}

	// nonCorporateRoles mark questions about public office holders, which
	// must never be read as market or metric lookups.
	nonCorporateRoles = []string{
		"minister", "governor", "president", "senator", "commissioner",
		"ambassador", "senate", "lawmaker",
	}

	summaryPhrases = []string{
		"summary", "summarize", "summarise", "overview", "highlights",
		"key figures", "financial performance", "at a glance",
	}

	// conceptTail lists words that may follow a concept term in a
	// definitional question without tying it to specific data.
	conceptTail = map[string]bool{
		"mean": true, "means": true, "meaning": true, "in": true, "finance": true,
		"investing": true, "investment": true, "and": true, "how": true, "does": true,
		"do": true, "is": true, "it": true, "they": true, "work": true, "works": true,
		"used": true, "calculated": true, "computed": true, "why": true,
		"important": true, "matter": true, "simple": true, "terms": true,
	}

	rolePhrases = []string{
		"ceo", "chief executive", "managing director", "md", "chairman", "chairperson",
		"director", "directors", "cfo", "chief financial officer", "coo",
		"head of", "manager", "team members", "key team", "leadership", "board",
		"executive", "executives", "founder", "team",
	}

	profileTopics = []string{
		"about", "company", "business", "services", "service", "mission",
		"vision", "philosophy", "clients", "clientele", "offer", "offers", "do",
	}

	organisationReferences = []string{
		"the company", "your company", "the firm", "your firm", "you",
	}
)
