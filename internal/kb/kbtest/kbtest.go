// Package kbtest provides a small knowledge-base snapshot for tests.
package kbtest

import (
	"strings"

	"github.com/sells-group/kb-resolver/internal/kb"
)

// JSON is a snapshot document in the extractor's layout.
const JSON = `{
  "financial_reports": [
    {"report_metadata": {"file_name": "jaiz_fy2022.pdf", "report_date": "2022-12-31",
      "metrics": {"total assets": 1000000, "profit before tax": 20000000, "earnings per share": 0.2, "gross earnings": 50000000},
      "_extraction_reasons": {"credit impairment charges": "not_found"}}},
    {"report_metadata": {"file_name": "jaiz_q3_2023.pdf", "report_date": "2023-09-30",
      "metrics": {"total assets": 1400000, "profit before tax": 25000000, "earnings per share": 0.18}}},
    {"report_metadata": {"file_name": "jaiz_fy2023.pdf", "report_date": "2023-12-31",
      "metrics": {"total assets": 1500000, "profit before tax": 30000000, "earnings per share": 0.25, "gross earnings": "70,000,000", "credit impairment charges": 0}}},
    {"report_metadata": {"file_name": "jaiz_q3_2024.pdf", "report_date": "2024-09-30",
      "metrics": {"total assets": 1900000, "net revenue from funds": 14605000, "earnings per share": 0.3253}}},
    {"report_metadata": {"file_name": "placeholder.pdf", "report_date": "1970-01-01", "metrics": {}}}
  ],
  "market_data": [
    {"symbol": "JAIZBANK", "symbolname": "Jaiz Bank Plc", "pricedate": "2024-01-05", "openingprice": 2.1, "closingprice": 2.2, "pcent": 4.76},
    {"symbol": "JAIZBANK", "symbolname": "Jaiz Bank Plc", "pricedate": "2024-10-01", "openingprice": 2.3, "closingprice": 2.45, "pcent": 1.2},
    {"symbol": "MTNN", "symbolname": "MTN Nigeria Communications Plc", "pricedate": "2024-10-01", "openingprice": 230, "closingprice": 225.5, "pcent": -1.95},
    {"symbol": "GTCO", "symbolname": "Guaranty Trust Holding Company Plc", "pricedate": "2024-10-01", "openingprice": 50, "closingprice": 54, "pcent": 8.0},
    {"symbol": "ZENITHBANK", "symbolname": "Zenith Bank Plc", "pricedate": "2024-10-01", "openingprice": 40, "closingprice": 38, "pcent": -5.0},
    {"symbol": "", "pricedate": "2024-10-01", "closingprice": 1}
  ],
  "client_profile": {
    "skyview knowledge pack": {
      "company overview": [
        "Skyview Capital Limited is a stockbroking and investment advisory firm.",
        "It is licensed by the Securities and Exchange Commission.",
        "Our mission is to deliver superior returns through disciplined research and client-first service."
      ],
      "key team members at skyview capital limited (summary)": [
        "Olufemi Adesiyan (Managing Director): leads the firm's strategy and client relationships.",
        "Ngozi Okafor (Head of Research): oversees equity research and daily market reports."
      ],
      "services offered by skyview capital limited": [
        "Stockbroking", "Retainer-ships for listed companies", "Receiving Agency for IPOs and Public Offerings", "Asset valuation"
      ],
      "contact information & locations for skyview capital limited": [
        "Head Office: 12 Bourdillon Road, Ikoyi, Lagos.",
        "FCT (Abuja) Branch: 5 Aguiyi Ironsi Street, Maitama, Abuja.",
        "Rivers State Branch: 20 Aba Road, Port Harcourt."
      ]
    },
    "skycap ai project": ["SkyCap AI provides faster insights and real-time trend predictions for NGX-listed stocks."],
    "testimonials for skyview capital limited": ["Emmanuel Oladimeji of Xayeed Group praised the research desk."]
  }
}`

// Snapshot decodes JSON. It panics on error, which only a broken fixture can cause.
func Snapshot() *kb.Snapshot {
	snap, err := kb.Decode(strings.NewReader(JSON))
	if err != nil {
		panic(err)
	}
	snap.Source = "kbtest"
	return snap
}
