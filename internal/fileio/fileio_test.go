package fileio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	excelize "github.com/xuri/excelize/v2"
)

func TestReadWorkbook_CSVSemicolon(t *testing.T) {
	t.Parallel()

	data := "Codigo;Descripcion;PVP Off Line\nA1;Bateria 12x65;\"$ 125.300\"\n\n\n"
	wb, err := ReadWorkbook(strings.NewReader(data), "lista.csv")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(wb.Sheets) != 1 || wb.Sheets[0].Name != "lista" {
		t.Fatalf("unexpected sheets: %+v", wb.Sheets)
	}
	cells := wb.Sheets[0].Cells
	if len(cells) != 2 {
		t.Fatalf("trailing empty rows must be trimmed, got %d rows", len(cells))
	}
	if cells[1][2] != "$ 125.300" {
		t.Fatalf("want=%q got=%q", "$ 125.300", cells[1][2])
	}
}

func TestReadWorkbook_XLSXAllSheetsAndMerges(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"LISTA DE PRECIOS"})
	if err := f.MergeCell("Sheet1", "A1", "C1"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"Codigo", "Marca", "Precio"})
	_ = f.SetSheetRow("Sheet1", "A3", &[]any{"X1", "Moura", "150000"})
	if _, err := f.NewSheet("Aditivos"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetSheetRow("Aditivos", "A1", &[]any{"Codigo", "Precio"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	wb, err := ReadWorkbook(&buf, "/tmp/Prov.XLSX")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if wb.Name != "Prov.XLSX" || len(wb.Sheets) != 2 {
		t.Fatalf("unexpected workbook: %s %d", wb.Name, len(wb.Sheets))
	}
	first := wb.Sheets[0].Cells
	if first[0][2] != "LISTA DE PRECIOS" {
		t.Fatalf("merged value not filled: %v", first[0])
	}
	if wb.Sheets[1].Name != "Aditivos" {
		t.Fatalf("sheet order lost: %s", wb.Sheets[1].Name)
	}
}

func TestReadWorkbook_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := ReadWorkbook(strings.NewReader("x"), "a.pdf")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("want ErrUnsupported got=%v", err)
	}
}
