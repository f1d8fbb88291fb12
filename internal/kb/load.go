package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kb-resolver/internal/fetcher"
	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/model"
)

// Opener fetches a source by location.
type Opener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

type rawSnapshot struct {
	FinancialReports []rawReport     `json:"financial_reports"`
	MarketData       []rawMarket     `json:"market_data"`
	ClientProfile    json.RawMessage `json:"client_profile"`
}

// rawReport accepts both the nested report_metadata layout written by the
// extractor and a flat layout.
type rawReport struct {
	DocumentID string            `json:"document_id"`
	SourceFile string            `json:"source_file"`
	ReportDate string            `json:"report_date"`
	Metrics    map[string]any    `json:"metrics"`
	Reasons    map[string]string `json:"extraction_reasons"`
	Meta       *struct {
		FileName   string            `json:"file_name"`
		ReportDate string            `json:"report_date"`
		Metrics    map[string]any    `json:"metrics"`
		Reasons    map[string]string `json:"_extraction_reasons"`
	} `json:"report_metadata"`
}

type rawMarket struct {
	Symbol       string `json:"symbol"`
	SymbolName   string `json:"symbolname"`
	PriceDate    string `json:"pricedate"`
	OpeningPrice any    `json:"openingprice"`
	ClosingPrice any    `json:"closingprice"`
	PercentMove  any    `json:"pcent"`
}

// Decode reads a snapshot document.
func Decode(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw rawSnapshot
	if err := dec.Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "kb: decode snapshot")
	}

	snap := &Snapshot{LoadedAt: time.Now().UTC()}
	for i, rr := range raw.FinancialReports {
		snap.Reports = append(snap.Reports, rr.toModel(i))
	}
	for _, rm := range raw.MarketData {
		if m, ok := rm.toModel(); ok {
			snap.Market = append(snap.Market, m)
		}
	}
	profile, err := decodeProfile(raw.ClientProfile)
	if err != nil {
		return nil, err
	}
	snap.Profile = profile
	return snap, nil
}

// Load fetches and decodes the snapshot at source.
func Load(ctx context.Context, source string, opener Opener) (*Snapshot, error) {
	rc, err := opener.Open(ctx, source)
	if err != nil {
		return nil, eris.Wrapf(err, "kb: open %s", source)
	}
	defer rc.Close() //nolint:errcheck

	snap, err := Decode(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "kb: load %s", source)
	}
	snap.Source = source

	zap.L().Info("kb: snapshot loaded",
		zap.String("source", source),
		zap.Int("reports", len(snap.Reports)),
		zap.Int("market_records", len(snap.Market)),
		zap.Int("profile_sections", len(snap.Profile.Sections)),
	)
	return snap, nil
}

// LoadPriceSheet reads a CSV or XLSX price list with a header row naming at
// least symbol, pricedate and closingprice columns.
func LoadPriceSheet(ctx context.Context, source string, opener Opener) ([]model.MarketRecord, error) {
	rc, err := opener.Open(ctx, source)
	if err != nil {
		return nil, eris.Wrapf(err, "kb: open price sheet %s", source)
	}
	defer rc.Close() //nolint:errcheck

	rows, err := fetcher.ReadRows(source, rc, fetcher.SheetOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "kb: read price sheet %s", source)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", ""))] = i
	}
	for _, required := range []string{"symbol", "pricedate", "closingprice"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("kb: price sheet %s has no %q column", source, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []model.MarketRecord
	for _, row := range rows[1:] {
		rm := rawMarket{
			Symbol:       cell(row, "symbol"),
			SymbolName:   cell(row, "symbolname"),
			PriceDate:    cell(row, "pricedate"),
			OpeningPrice: cell(row, "openingprice"),
			ClosingPrice: cell(row, "closingprice"),
			PercentMove:  cell(row, "pcent"),
		}
		if m, ok := rm.toModel(); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (rr rawReport) toModel(i int) model.FinancialReport {
	rep := model.FinancialReport{
		DocumentID: rr.DocumentID,
		Date:       rr.ReportDate,
		Metrics:    rr.Metrics,
		Reasons:    rr.Reasons,
	}
	if rr.Meta != nil {
		if rep.Date == "" {
			rep.Date = rr.Meta.ReportDate
		}
		if len(rep.Metrics) == 0 {
			rep.Metrics = rr.Meta.Metrics
		}
		if len(rep.Reasons) == 0 {
			rep.Reasons = rr.Meta.Reasons
		}
		if rep.DocumentID == "" {
			rep.DocumentID = rr.Meta.FileName
		}
	}
	if rep.DocumentID == "" {
		rep.DocumentID = rr.SourceFile
	}
	if rep.DocumentID == "" {
		rep.DocumentID = fmt.Sprintf("report-%d", i+1)
	}
	return rep
}

func (rm rawMarket) toModel() (model.MarketRecord, bool) {
	symbol := strings.TrimSpace(rm.Symbol)
	date := strings.TrimSpace(rm.PriceDate)
	if symbol == "" || date == "" {
		return model.MarketRecord{}, false
	}
	if d, ok := metric.ParseDate(date); ok {
		date = d.Format(model.DateLayout)
	}
	closing, ok := metric.ParseValue(rm.ClosingPrice)
	if !ok {
		return model.MarketRecord{}, false
	}
	m := model.MarketRecord{
		Symbol:       symbol,
		SymbolName:   strings.TrimSpace(rm.SymbolName),
		PriceDate:    date,
		ClosingPrice: closing,
	}
	if opening, ok := metric.ParseValue(rm.OpeningPrice); ok {
		m.OpeningPrice = opening
	}
	if pct, ok := metric.ParseValue(rm.PercentMove); ok {
		m.PercentMove = &pct
	}
	return m, true
}
