// Package export writes the metric index to a spreadsheet.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/kb-resolver/internal/metric"
	"github.com/sells-group/kb-resolver/internal/registry"
)

// SummarySheet is the name of the first sheet.
const SummarySheet = "Summary"

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

var summaryHeader = []string{"Metric", "Key", "Sheet", "Records", "First date", "Last date", "Latest value"}

var metricHeader = []string{"Date", "Value", "Display", "Document"}

// WriteWorkbook writes a summary sheet followed by one sheet per metric key
// with its dated values. Metrics missing from reg render as raw currency.
func WriteWorkbook(w io.Writer, idx *metric.Index, reg *registry.Registry) error {
	if reg == nil {
		reg = registry.Default()
	}
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addRow(summary, summaryHeader...)

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	if idx != nil {
		for _, key := range idx.Keys() {
			recs := idx.Records(key)
			if len(recs) == 0 {
				continue
			}
			entry, ok := reg.Lookup(key)
			if !ok {
				entry = registry.Entry{Canonical: key}
			}

			name := SheetName(key, used)
			sheet, err := f.AddSheet(name)
			if err != nil {
				return eris.Wrapf(err, "export: add sheet %q", name)
			}
			addRow(sheet, metricHeader...)
			for _, r := range recs {
				row := sheet.AddRow()
				row.AddCell().SetString(r.DateString())
				row.AddCell().SetFloat(r.Value)
				row.AddCell().SetString(entry.Display(r.Value))
				row.AddCell().SetString(r.Source.DocumentID)
			}

			first, last := recs[0], recs[len(recs)-1]
			row := summary.AddRow()
			row.AddCell().SetString(entry.Canonical)
			row.AddCell().SetString(key)
			row.AddCell().SetString(name)
			row.AddCell().SetInt(len(recs))
			row.AddCell().SetString(first.DateString())
			row.AddCell().SetString(last.DateString())
			row.AddCell().SetString(entry.Display(last.Value))
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// SheetName derives a valid, unique sheet name from a metric key and marks
// it in used.
func SheetName(key string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(key))
	base = strings.Trim(base, "'")
	if base == "" {
		base = "metric"
	}
	base = truncate(base, maxSheetName)

	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
