package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/catalog/service"
)

type errorBody struct {
	Error       string             `json:"error"`
	Diagnostics []model.SheetScore `json:"diagnostics,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, diags []model.SheetScore) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Diagnostics: diags})
}

// requestLogger: логгер запроса из middleware.Logging (уже с req_id), иначе base.
func requestLogger(r *http.Request, base zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return base
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on", "si", "sí":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Schema отдаёт JSON-схему, по которой ассистент обязан отвечать.
func Schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   service.MappingSchemaName,
		"schema": service.MappingSchema,
	}, true, zerolog.Nop())
}
