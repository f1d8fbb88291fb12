package fetcher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, name string, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadRows_CSV(t *testing.T) {
	rows, err := ReadRows("prices.csv", strings.NewReader("symbol, pricedate ,closingprice\nJAIZBANK,2024-01-05, 2.45\n"), SheetOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"symbol", "pricedate", "closingprice"}, rows[0])
	assert.Equal(t, []string{"JAIZBANK", "2024-01-05", "2.45"}, rows[1])
}

func TestReadRows_XLSX(t *testing.T) {
	data := createTestXLSX(t, "Prices", [][]string{
		{"symbol", "closingprice"},
		{"MTNN", "230.5"},
	})

	rows, err := ReadRows("daily.XLSX", bytes.NewReader(data), SheetOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"MTNN", "230.5"}, rows[1])

	rows, err = ReadRows("daily.xlsx", bytes.NewReader(data), SheetOptions{SheetName: "Prices"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ReadRows("daily.xlsx", bytes.NewReader(data), SheetOptions{SheetName: "Missing"})
	assert.Error(t, err)
}

func TestReadRows_Errors(t *testing.T) {
	_, err := ReadRows("prices.pdf", strings.NewReader(""), SheetOptions{})
	assert.Error(t, err)

	_, err = ReadRows("prices.xlsx", strings.NewReader(""), SheetOptions{})
	assert.Error(t, err)
}
