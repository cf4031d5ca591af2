package importer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"product-import-service/internal/models"
)

func TestParseCSV_BasicRows(t *testing.T) {
	csv := "grupo,codigo,codigo_barras,nome\n" +
		"Bebidas,10034,7891000100103,Refrigerante\n" +
		"Cervejas,10035,,Cerveja\n"

	result, err := Parse("produtos.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 0, result.BlankRows)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, 1, result.Rows[0].Number)
	assert.Equal(t, "Bebidas", result.Rows[0].Cell(models.ColGroup))
	assert.Equal(t, "10034", result.Rows[0].Cell(models.ColCode))

	assert.Equal(t, 2, result.Rows[1].Number)
	assert.Equal(t, "", result.Rows[1].Cell(models.ColBarcode))
}

func TestParseCSV_BlankRowsKeepNumbering(t *testing.T) {
	csv := "grupo,codigo\n" +
		"Bebidas,10034\n" +
		",\n" +
		"Cervejas,10035\n"

	result, err := Parse("produtos.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.BlankRows)
	require.Len(t, result.Rows, 2)

	// The blank second row keeps its slot so positions match the file
	assert.Equal(t, 1, result.Rows[0].Number)
	assert.Equal(t, 3, result.Rows[1].Number)
}

func TestParseCSV_ShortRowsArePadded(t *testing.T) {
	csv := "grupo,codigo\nBebidas,10034\n"

	result, err := Parse("produtos.csv", []byte(csv))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Len(t, row.Cells, models.NumImportColumns)
	assert.Equal(t, "", row.Cell(models.ColNetWeight))
}

func TestParseCSV_EmptyFile(t *testing.T) {
	_, err := Parse("produtos.csv", []byte(""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	_, err := Parse("produtos.csv", []byte("grupo,codigo\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestParse_CellWhitespace(t *testing.T) {
	csv := "grupo,codigo,codigo_barras,nome\n" +
		"Bebidas,10034,, Refrigerante \n"

	result, err := Parse("produtos.csv", []byte(csv))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "Refrigerante", row.Cell(models.ColName))
	assert.Equal(t, " Refrigerante ", row.RawCell(models.ColName))
}

func TestParseXLSX_BasicRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"grupo", "codigo", "codigo_barras", "nome"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"Bebidas", "10034", "7891000100103", "Refrigerante"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]string{"Cervejas", "10035", "", "Cerveja"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	result, err := Parse("produtos.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Bebidas", result.Rows[0].Cell(models.ColGroup))
	assert.Equal(t, "Cerveja", result.Rows[1].Cell(models.ColName))
}

func TestParseXLSX_HeaderOnly(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"grupo", "codigo"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := Parse("produtos.xlsx", buf.Bytes())
	assert.Error(t, err)
}

func TestParseXLSX_NotASpreadsheet(t *testing.T) {
	_, err := Parse("produtos.xlsx", []byte("this is not a zip archive"))
	assert.Error(t, err)
}

func TestRow_CellOutOfRange(t *testing.T) {
	row := Row{Number: 1, Cells: []string{"a"}}
	assert.Equal(t, "", row.Cell(5))
	assert.Equal(t, "", row.RawCell(-1))
}

func TestParseCSV_ManyRows(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("grupo,codigo\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&buf, "Grupo,%d\n", 10000+i)
	}

	result, err := Parse("produtos.csv", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 500, result.TotalRows)
	assert.Equal(t, 500, result.Rows[499].Number)
}
