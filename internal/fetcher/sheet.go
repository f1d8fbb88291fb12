package fetcher

import (
	"encoding/csv"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetOptions configures tabular parsing.
type SheetOptions struct {
	SheetName string // xlsx only; first sheet when empty
	Delimiter rune   // csv only; default ','
}

// ReadRows parses a CSV or XLSX document into trimmed string rows. The format
// is chosen by the extension of name.
func ReadRows(name string, r io.Reader, opts SheetOptions) ([][]string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "xlsx: read")
		}
		return readXLSX(data, opts)
	case ".csv", ".txt":
		return readCSV(r, opts)
	default:
		return nil, eris.Errorf("sheet: unsupported format %q", name)
	}
}

func readCSV(r io.Reader, opts SheetOptions) ([][]string, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		rows = append(rows, record)
	}
}

func readXLSX(data []byte, opts SheetOptions) ([][]string, error) {
	if len(data) == 0 {
		return nil, eris.New("xlsx: empty document")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open")
	}

	sheet, err := getSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}
