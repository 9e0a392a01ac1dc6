package fileio

import (
	"io"

	excelize "github.com/xuri/excelize/v2"

	"catalog-service/internal/catalog/model"
)

func readXLSX(r io.Reader) ([]model.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets []model.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, err
		}
		grid := squareGrid(rows)
		if err := fillMerged(f, name, grid); err != nil {
			return nil, err
		}
		sheets = append(sheets, model.Sheet{Name: name, Cells: grid})
	}
	return sheets, nil
}

// fillMerged размножает значение объединённой ячейки на весь диапазон
// (шапки поставщиков часто объединены по горизонтали).
func fillMerged(f *excelize.File, sheet string, grid [][]string) error {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return err
	}
	for _, m := range merges {
		val := normalizeCell(m.GetCellValue())
		c1, r1, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		for r := r1 - 1; r <= r2-1 && r < len(grid); r++ {
			for c := c1 - 1; c <= c2-1 && c < len(grid[r]); c++ {
				grid[r][c] = val
			}
		}
	}
	return nil
}
