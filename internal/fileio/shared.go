package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"catalog-service/internal/catalog/model"
)

var ErrUnsupported = errors.New("unsupported file")

// ReadWorkbook: выберет парсер по расширению и вернёт все листы как сырые сетки.
func ReadWorkbook(r io.Reader, filename string) (model.Workbook, error) {
	wb := model.Workbook{Name: filepath.Base(filename)}
	var (
		sheets []model.Sheet
		err    error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		sheets, err = readXLSX(r)
	case ".xls":
		sheets, err = readXLS(r)
	case ".csv", ".txt":
		sheets, err = readCSV(r, strings.TrimSuffix(wb.Name, filepath.Ext(wb.Name)))
	default:
		return wb, fmt.Errorf("%w: %s", ErrUnsupported, filename)
	}
	if err != nil {
		return wb, err
	}
	wb.Sheets = sheets
	return wb, nil
}

// squareGrid выравнивает строки по ширине самой длинной и тримит ячейки.
func squareGrid(rows [][]string) [][]string {
	maxCols := 0
	for _, r := range rows {
		if len(r) > maxCols {
			maxCols = len(r)
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = make([]string, maxCols)
		for j, v := range r {
			out[i][j] = normalizeCell(v)
		}
	}
	return trimTrailingEmpty(out)
}

// normalizeCell: NBSP -> пробел, trim.
func normalizeCell(v string) string {
	v = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\r", " ", "\n", " ").Replace(v)
	return strings.TrimSpace(v)
}

func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && rowEmpty(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func rowEmpty(r []string) bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}
