package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kb-resolver/internal/analysis"
	"github.com/sells-group/kb-resolver/internal/kb/kbtest"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/registry"
)

func testEnv() Env {
	snap := kbtest.Snapshot()
	return Env{Snapshot: snap, Index: metric.BuildIndex(snap.Reports), Registry: registry.Default()}
}

func query(text string, in model.Intent) Query {
	return NewQuery(text, in, metric.ParseQuery(text, registry.Default()))
}

func ask(t *testing.T, e Engine, text string) (Answer, bool) {
	t.Helper()
	return e.Answer(context.Background(), query(text, model.IntentUnknown))
}

func TestAll_Order(t *testing.T) {
	var names []string
	for _, e := range All(testEnv(), Options{}) {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		NameFinancial, NameMetadata, NamePersonnel, NameMarket,
		NameProfile, NameLocation, NameGeneral, NameSummary,
	}, names)
}

func TestFinancial(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	tests := []struct {
		name     string
		question string
		want     string
		conf     model.Confidence
	}{
		{
			name:     "year prefers december",
			question: "What was the total assets in 2023?",
			want:     "The total assets for Jaiz Bank as of 2023-12-31 was ₦1.500 Billion.",
			conf:     model.ConfidenceHigh,
		},
		{
			name:     "latest",
			question: "What is the latest total assets?",
			want:     "The latest total assets for Jaiz Bank is ₦1.900 Billion (as of 2024-09-30).",
			conf:     model.ConfidenceHigh,
		},
		{
			name:     "quarter",
			question: "total assets for Q3 2023",
			want:     "The total assets for Jaiz Bank as of 2023-09-30 was ₦1.400 Billion.",
			conf:     model.ConfidenceHigh,
		},
		{
			name:     "per share shown raw",
			question: "earnings per share in the third quarter of 2024",
			want:     "The earnings per share for Jaiz Bank as of 2024-09-30 was ₦0.3253.",
			conf:     model.ConfidenceHigh,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := ask(t, f, tt.question)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.Text)
			assert.Equal(t, tt.conf, a.Confidence)
			assert.False(t, a.Terminal)
			require.Len(t, a.Sources, 1)
		})
	}
}

func TestFinancial_ZeroValueIsQualified(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, f, "What were the credit impairment charges in 2023?")
	require.True(t, ok)
	assert.Equal(t, model.ConfidenceMedium, a.Confidence)
	assert.Contains(t, a.Text, "₦0.00")
	assert.Contains(t, a.Text, "Note:")
}

func TestFinancial_MissingYear(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	_, ok := ask(t, f, "What was the total assets in 2019?")
	assert.False(t, ok)

	_, ok = ask(t, f, "hello there")
	assert.False(t, ok)
}

func TestFinancial_Comparison(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, f, "Compare profit before tax between 2022 and 2023")
	require.True(t, ok)
	assert.Contains(t, a.Text, "Comparing profit before tax between 2022 and 2023")
	assert.Contains(t, a.Text, "from ₦20.000 Billion (as of 2022-12-31) to ₦30.000 Billion (as of 2023-12-31)")
	assert.Contains(t, a.Text, "an increase of ₦10,000,000,000.00 (+50.00%)")
	assert.Len(t, a.Sources, 2)
	assert.False(t, a.Terminal)
}

func TestFinancial_ComparisonInsufficientIsTerminal(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, f, "Compare total assets between 2019 and 2023")
	require.True(t, ok)
	assert.True(t, a.Terminal)
	assert.Equal(t, analysis.InsufficientDataMessage, a.Text)
}

func TestFinancial_Trend(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, f, "Show the trend of total assets from 2022 to 2024")
	require.True(t, ok)
	assert.Contains(t, a.Text, "2022: ₦1.000 Billion (recorded 2022-12-31); 2023: ₦1.500 Billion (recorded 2023-12-31); 2024: ₦1.900 Billion (recorded 2024-09-30)")
	assert.Len(t, a.Sources, 3)
}

func TestFinancial_PriceToEarnings(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, f, "What is the latest P/E ratio?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "The latest P/E ratio for Jaiz Bank was 7.53x")
	assert.Contains(t, a.Text, "₦2.45 on 2024-10-01")

	a, ok = ask(t, f, "What was the highest price to earnings ratio?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "12.22x")

	a, ok = ask(t, f, "What was the PE ratio in 2023?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "The P/E ratio in 2023 for Jaiz Bank was 8.80x")

	_, ok = ask(t, f, "What was the PE ratio in 2019?")
	assert.False(t, ok)
}

func TestFinancial_SkipsSummaryIntent(t *testing.T) {
	f := &Financial{env: testEnv(), opts: DefaultOptions()}

	_, ok := f.Answer(context.Background(), query("give me an overview of total assets", model.IntentSummary))
	assert.False(t, ok)
}

func TestMarket(t *testing.T) {
	m := &Market{env: testEnv()}

	tests := []struct {
		question string
		want     string
	}{
		{"What was the closing price of JAIZBANK on 5th January 2024?", "The closing price for JAIZBANK on 2024-01-05 was ₦2.20."},
		{"What was the opening price of JAIZBANK on 2024-01-05?", "The opening price for JAIZBANK on 2024-01-05 was ₦2.10."},
		{"What is the price of JAIZBANK?", "The most recent closing price for JAIZBANK on 2024-10-01 was ₦2.45."},
		{"Which symbol corresponds to 'Zenith Bank'?", "The stock symbol for Zenith Bank Plc is ZENITHBANK."},
		{"What is the ticker for mtn nigeria?", "The stock symbol for MTN Nigeria Communications Plc is MTNN."},
		{"Which symbol corresponds to 'Acme Foods'?", "I could not find a stock symbol corresponding to 'acme foods'."},
		{"Who were the top 2 gainers?", "The top 2 market gainers were: GTCO (+8.00%), JAIZBANK (+4.76%)."},
		{"List the top losers", "The top 3 market losers were: ZENITHBANK (-5.00%), MTNN (-1.95%), JAIZBANK (+1.20%)."},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			a, ok := ask(t, m, tt.question)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.Text)
		})
	}
}

func TestMarket_NoMatch(t *testing.T) {
	m := &Market{env: testEnv()}

	for _, q := range []string{
		"What is the share price?",
		"What was the closing price of JAIZBANK on 1st March 2020?",
		"What is the price of ACME?",
		"Who is the CEO of MTNN?",
		"Does GTCO pay dividends?",
	} {
		_, ok := ask(t, m, q)
		assert.False(t, ok, q)
	}
}

func TestMarket_ClassifiedPriceWithoutWording(t *testing.T) {
	m := &Market{env: testEnv()}

	a, ok := m.Answer(context.Background(), query("JAIZBANK today", model.IntentMarketPrice))
	require.True(t, ok)
	assert.Equal(t, "The most recent closing price for JAIZBANK on 2024-10-01 was ₦2.45.", a.Text)
}

func TestParseDayDate(t *testing.T) {
	want := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"on 2024-01-05", "5th january 2024", "5 of january 2024", "january 5, 2024", "january 5th 2024"} {
		got, ok := ParseDayDate(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), s)
	}
	_, ok := ParseDayDate("sometime in 2024")
	assert.False(t, ok)
}

func TestMetadata(t *testing.T) {
	m := &Metadata{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, m, "How many reports are in the knowledge base?")
	require.True(t, ok)
	assert.Equal(t, "There are 5 financial reports available in the knowledge base, primarily covering Jaiz Bank's quarterly and annual financial statements.", a.Text)

	a, ok = ask(t, m, "What is the date range of the reports?")
	require.True(t, ok)
	assert.Equal(t, "The financial reports cover a date range from 2022-12-31 to 2024-09-30.", a.Text)

	a, ok = ask(t, m, "How many market records do you have?")
	require.True(t, ok)
	assert.Equal(t, "There are 5 market price records in the knowledge base, covering 4 instruments.", a.Text)

	_, ok = ask(t, m, "What is the weather?")
	assert.False(t, ok)
}

func TestPersonnel(t *testing.T) {
	p := &Personnel{env: testEnv()}

	a, ok := ask(t, p, "Can you list the key team members?")
	require.True(t, ok)
	assert.Equal(t, "The key team members are: Olufemi Adesiyan (Managing Director), Ngozi Okafor (Head of Research).", a.Text)

	a, ok = ask(t, p, "Who is the Head of Research?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "Ngozi Okafor")

	a, ok = ask(t, p, "Tell me about Olufemi Adesiyan")
	require.True(t, ok)
	assert.Contains(t, a.Text, "Managing Director")

	_, ok = ask(t, p, "Who is the chief pilot?")
	assert.False(t, ok)
}

func TestSplitMember(t *testing.T) {
	name, role := splitMember("Jane Doe (CFO): runs finance")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "CFO", role)

	name, role = splitMember("John Roe: adviser")
	assert.Equal(t, "John Roe", name)
	assert.Empty(t, role)
}

func TestProfile(t *testing.T) {
	p := &Profile{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, p, "What is your mission?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "Our mission is")

	a, ok = ask(t, p, "What services do you offer?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "Skyview Capital Limited provides a comprehensive suite of financial services")
	assert.Contains(t, a.Text, "Receiving Agency for IPOs")

	a, ok = ask(t, p, "Tell me about the company")
	require.True(t, ok)
	assert.Equal(t, "Skyview Capital Limited is a stockbroking and investment advisory firm. It is licensed by the Securities and Exchange Commission.", a.Text)
}

func TestLocation(t *testing.T) {
	l := &Location{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, l, "Where is the head office?")
	require.True(t, ok)
	assert.Equal(t, "The head office of Skyview Capital Limited is located at: Head Office: 12 Bourdillon Road, Ikoyi, Lagos.", a.Text)

	a, ok = ask(t, l, "What is the address of the Abuja branch?")
	require.True(t, ok)
	assert.Equal(t, "The Abuja branch is located at: FCT (Abuja) Branch: 5 Aguiyi Ironsi Street, Maitama, Abuja.", a.Text)

	a, ok = ask(t, l, "Do you have an office in Port Harcourt?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "The Rivers State branch is located at:")

	_, ok = ask(t, l, "Where is Kano?")
	assert.False(t, ok)
}

func TestGeneral(t *testing.T) {
	g := &General{env: testEnv(), opts: DefaultOptions()}

	a, ok := ask(t, g, "Who are you?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "SkyCap AI")

	a, ok = ask(t, g, "What is the complaints email?")
	require.True(t, ok)
	assert.Equal(t, "For complaints, you can reach out to complaints@skyviewcapitalng.com.", a.Text)

	a, ok = ask(t, g, "Do you have testimonials?")
	require.True(t, ok)
	assert.Contains(t, a.Text, "Emmanuel Oladimeji of Xayeed Group")

	a, ok = ask(t, g, "Tell me about the SkyCap AI project")
	require.True(t, ok)
	assert.Contains(t, a.Text, "real-time trend predictions")

	_, ok = ask(t, g, "What is the capital of France?")
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	s := &Summary{env: testEnv(), opts: DefaultOptions()}

	a, ok := s.Answer(context.Background(), query("Give me a summary", model.IntentSummary))
	require.True(t, ok)
	assert.Contains(t, a.Text, "Financial summary for Jaiz Bank")
	assert.Contains(t, a.Text, "total assets of ₦1.900 Billion (as of 2024-09-30)")
	assert.Contains(t, a.Text, "gross earnings of ₦70.000 Billion (as of 2023-12-31)")
	assert.Contains(t, a.Text, "earnings per share of ₦0.3253 (as of 2024-09-30)")
	assert.NotContains(t, a.Text, "profit after tax")

	_, ok = ask(t, s, "What is the weather?")
	assert.False(t, ok)
}
