package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/catalog/service"
	"catalog-service/internal/config"
	"catalog-service/internal/fileio"
)

// Processor: то, что хендлеру нужно от пайплайна.
type Processor interface {
	Process(ctx context.Context, req service.ProcessRequest) (model.Result, error)
}

// Process возвращает http.HandlerFunc для r.Post("/catalog/process", ...).
// Форма: file (xlsx/xls/csv), vendor (необязательно), config (JSON прошлой конфигурации).
func Process(cfg config.Config, logger zerolog.Logger, p Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log := requestLogger(r, logger)
		defer r.Body.Close()

		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error(), nil)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file: "+err.Error(), nil)
			return
		}
		defer file.Close()

		wb, err := fileio.ReadWorkbook(file, header.Filename)
		if err != nil {
			log.Warn().Err(err).Str("file", header.Filename).Msg("read workbook")
			writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error(), nil)
			return
		}

		req := service.ProcessRequest{
			Workbook:    wb,
			Vendor:      strings.TrimSpace(r.FormValue("vendor")),
			PriorConfig: []byte(r.FormValue("config")),
		}
		res, err := p.Process(r.Context(), req)
		if err != nil {
			status, diags := classify(err)
			ev := log.Warn()
			if status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Err(err).Int("status", status).Str("file", wb.Name).Msg("catalog processing failed")
			writeError(w, status, message(err), diags)
			return
		}

		writeJSON(w, http.StatusOK, res, toBool(r.FormValue("pretty"), true), log)
		log.Info().
			Str("file", wb.Name).
			Int("sheets", len(wb.Sheets)).
			Int("products", res.Stats.Total).
			Str("mapping", string(res.Mapping.Source)).
			Dur("elapsed", time.Since(start)).
			Msg("catalog processed")
	}
}

func classify(err error) (int, []model.SheetScore) {
	var ie *service.InputError
	switch {
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity, ie.Diagnostics
	case errors.Is(err, service.ErrNoKeyColumns):
		return http.StatusUnprocessableEntity, nil
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, nil
	case errors.Is(err, context.Canceled):
		return 499, nil
	}
	return http.StatusInternalServerError, nil
}

func message(err error) string {
	switch {
	case errors.Is(err, service.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return err.Error()
}
