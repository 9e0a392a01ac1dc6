package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/utils"
)

const (
	headerScanRows   = 40
	minScore         = 2
	identifierFloor  = 3
	identifierRowsOK = 5
)

// SelectSheets оценивает каждый лист, выкидывает слабые и склеивает остальные.
// Заголовки результата: заголовки ПОСЛЕДНЕГО выжившего листа (совместимость со
// старым поведением; строки сохраняют собственные ключи).
func SelectSheets(wb model.Workbook, log zerolog.Logger) (model.Selection, error) {
	var sel model.Selection
	if len(wb.Sheets) == 0 {
		return sel, inputErr("workbook has no sheets", nil)
	}

	empty := true
	for _, sh := range wb.Sheets {
		if len(sh.Cells) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return sel, inputErr("workbook is empty", nil)
	}

	for _, sh := range wb.Sheets {
		hdrIdx := findHeaderRow(sh.Cells)
		headers := buildHeaders(sh.Cells, hdrIdx)
		rows := buildRows(sh, hdrIdx, headers)
		score := scoreSheet(sh.Name, hdrIdx, headers, len(rows))
		sel.Diagnostics = append(sel.Diagnostics, score)

		log.Debug().
			Str("sheet", sh.Name).
			Int("header_row", hdrIdx).
			Int("rows", len(rows)).
			Int("score", score.Score).
			Bool("discarded", score.Discarded).
			Str("reason", score.Reason).
			Msg("sheet scored")

		if score.Discarded {
			continue
		}
		sel.Rows = append(sel.Rows, rows...)
		sel.Headers = headers
	}

	if sel.Headers == nil {
		return sel, inputErr("no sheet passed the quality threshold", sel.Diagnostics)
	}

	before := len(sel.Rows)
	sel.Rows = filterNoise(sel.Rows)
	log.Info().
		Int("sheets", len(wb.Sheets)).
		Int("rows", len(sel.Rows)).
		Int("noise_dropped", before-len(sel.Rows)).
		Strs("headers", sel.Headers).
		Msg("sheets selected")
	return sel, nil
}

// findHeaderRow: первая строка в первых 40 с >=3 непустыми ячейками и хотя бы
// одним ключевым словом шапки; иначе 0.
func findHeaderRow(cells [][]string) int {
	for i := 0; i < len(cells) && i < headerScanRows; i++ {
		nonEmpty, indicator := 0, false
		for _, c := range cells[i] {
			if c == "" {
				continue
			}
			nonEmpty++
			if !indicator && isHeaderIndicator(c) {
				indicator = true
			}
		}
		if nonEmpty >= 3 && indicator {
			return i
		}
	}
	return 0
}

// buildHeaders подставляет "Column N" для пустых и нумерует дубли: "Precio (2)".
func buildHeaders(cells [][]string, idx int) []string {
	if idx >= len(cells) {
		return nil
	}
	src := cells[idx]
	out := make([]string, len(src))
	seen := map[string]int{}
	for i, v := range src {
		v = strings.TrimSpace(v)
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		key := utils.Fold(v)
		seen[key]++
		if n := seen[key]; n > 1 {
			v = fmt.Sprintf("%s (%d)", v, n)
		}
		out[i] = v
	}
	return out
}

// buildRows: записи по заголовкам, полностью пустые строки пропускаются.
func buildRows(sh model.Sheet, hdrIdx int, headers []string) []model.Row {
	var out []model.Row
	for r := hdrIdx + 1; r < len(sh.Cells); r++ {
		rec := sh.Cells[r]
		row := model.NewRow(sh.Name, r+1)
		blank := true
		for c, h := range headers {
			var v string
			if c < len(rec) {
				v = strings.TrimSpace(rec[c])
			}
			if v != "" {
				blank = false
			}
			row.Set(h, v)
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

func scoreSheet(name string, hdrIdx int, headers []string, rows int) model.SheetScore {
	s := model.SheetScore{Sheet: name, HeaderRow: hdrIdx, Headers: headers, Rows: rows}

	best := 0
	for _, h := range headers {
		if tier := isPriceHeader(h); tier > 0 && (best == 0 || tier < best) {
			best, s.PriceColumn = tier, h
		}
		s.HasIdentifier = s.HasIdentifier || isIdentifierHeader(h)
		s.HasBrand = s.HasBrand || isBrandHeader(h)
		s.HasDescription = s.HasDescription || isDescriptionHeader(h)
		s.HasCategory = s.HasCategory || isCategoryHeader(h)
	}
	s.PriceTier = best

	switch best {
	case 1:
		s.Score += 5
	case 2:
		s.Score += 4
	case 3:
		s.Score += 3
	}
	if s.HasIdentifier {
		s.Score += 3
	}
	if s.HasBrand {
		s.Score += 3
	}
	if s.HasDescription {
		s.Score += 2
	}
	if s.HasCategory {
		s.Score++
	}

	switch {
	case rows >= 10:
		s.Score += 5
	case rows >= 5:
		s.Score += 3
	case rows >= 2:
		s.Score++
	}

	for _, ok := range []bool{best > 0, s.HasIdentifier, s.HasBrand, s.HasDescription, s.HasCategory} {
		if ok {
			s.KeyColumns++
		}
	}
	switch {
	case s.KeyColumns >= 4:
		s.Score += 3
	case s.KeyColumns >= 3:
		s.Score += 2
	}

	if rows < 2 {
		s.Score = 0
		s.Discarded, s.Reason = true, "fewer than 2 data rows"
		return s
	}

	identifierRescue := s.HasIdentifier && rows >= identifierRowsOK
	if identifierRescue && s.Score < identifierFloor {
		s.Score = identifierFloor
	}

	switch {
	case best == 0 && !identifierRescue:
		s.Discarded, s.Reason = true, "no price column"
	case s.Score < minScore:
		s.Discarded, s.Reason = true, "score below threshold"
	}
	return s
}

// filterNoise выкидывает заметки, заголовки разделов и повторённые шапки.
func filterNoise(rows []model.Row) []model.Row {
	out := rows[:0:0]
	for _, r := range rows {
		if !isNoiseRow(r) {
			out = append(out, r)
		}
	}
	return out
}

func isNoiseRow(r model.Row) bool {
	var (
		nonEmpty int
		noise    bool
		repeats  int
		only     string
	)
	r.Each(func(k, v string) bool {
		if v == "" {
			return true
		}
		nonEmpty++
		only = v
		f := utils.Fold(v)
		if utils.ContainsAny(f, noiseTerms...) {
			noise = true
		}
		if repeatsHeader(k, v) {
			repeats++
		}
		return true
	})
	switch {
	case nonEmpty == 0:
		return true
	case nonEmpty <= 2 && noise:
		return true
	case nonEmpty == 1:
		// одиночная ячейка без цены: заголовок раздела ("BATERIAS 12V")
		_, isPrice := utils.ParsePrice(only)
		return !isPrice
	case repeats >= 2 && repeats*2 >= nonEmpty:
		// повтор шапки внутри листа
		return true
	}
	return false
}

// repeatsHeader: ячейка совпадает с заголовком своей колонки ("Precio (2)" -> "Precio").
func repeatsHeader(key, v string) bool {
	fv := utils.FoldKey(v)
	if fv == "" {
		return false
	}
	if fv == utils.FoldKey(key) {
		return true
	}
	if i := strings.LastIndex(key, " ("); i > 0 && strings.HasSuffix(key, ")") {
		return fv == utils.FoldKey(key[:i])
	}
	return false
}
