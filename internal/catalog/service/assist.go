package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/invopop/jsonschema"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/utils"
)

// AssistRequest: один запрос к ассистенту. Feedback добавляется отдельным
// сообщением к исходному запросу при повторе.
type AssistRequest struct {
	Instructions string
	Input        string
	Feedback     string
	SchemaName   string
	Schema       any
}

// Assistant: внешний сервис текстовых дополнений. Возвращает сырой JSON.
type Assistant interface {
	Complete(ctx context.Context, req AssistRequest) (string, error)
}

// ----- схема ответа (Structured Outputs) -----

type assistFieldEvidence struct {
	Columna  string   `json:"columna" jsonschema_description:"Chosen column name, copied exactly from headers, or empty"`
	Muestras []string `json:"muestras" jsonschema_description:"2-5 sample values copied from that column"`
	Razon    string   `json:"razon" jsonschema_description:"One-line rationale"`
}

type assistEvidence struct {
	Tipo          assistFieldEvidence `json:"tipo"`
	Modelo        assistFieldEvidence `json:"modelo"`
	Marca         assistFieldEvidence `json:"marca"`
	PrecioARS     assistFieldEvidence `json:"precio_ars"`
	Descripcion   assistFieldEvidence `json:"descripcion"`
	Identificador assistFieldEvidence `json:"identificador"`
}

type assistColumn struct {
	Columna string `json:"columna"`
	Clase   string `json:"clase" jsonschema:"enum=tipo,enum=modelo,enum=marca,enum=precio_ars,enum=descripcion,enum=identificador,enum=dimension,enum=moneda_extranjera,enum=otro"`
}

type assistResponse struct {
	Tipo          string         `json:"tipo" jsonschema_description:"Column name for product type/category, or empty"`
	Modelo        string         `json:"modelo" jsonschema_description:"Column name for model, or empty"`
	Marca         string         `json:"marca" jsonschema_description:"Column name for brand, or empty"`
	PrecioARS     string         `json:"precio_ars" jsonschema_description:"Column name for the ARS unit price, or empty"`
	Descripcion   string         `json:"descripcion" jsonschema_description:"Column name for description, or empty"`
	Identificador string         `json:"identificador" jsonschema_description:"Column name for product code/identifier, or empty"`
	Confianza     float64        `json:"confianza" jsonschema:"minimum=0,maximum=1" jsonschema_description:"Overall confidence 0..1"`
	Evidencia     assistEvidence `json:"evidencia"`
	Columnas      []assistColumn `json:"columnas" jsonschema_description:"Classification of every header"`
	Notas         string         `json:"notas"`
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var MappingSchema = generateSchema[assistResponse]()

const MappingSchemaName = "column_mapping"

const assistInstructions = `You map the columns of a supplier price list (batteries, additives, tools; Argentina) to a fixed product schema.
Return ONLY one JSON object matching the schema.
Every field value MUST be a column name copied exactly from "headers", or "" when no column fits. NEVER return cell values.
Rules:
1. precio_ars is the unit price in Argentine pesos. Prefer "PVP Off Line", then "Precio de Lista", then "Precio Unitario".
2. Never choose columns priced in USD, U$S or dollars.
3. Never choose pallet, weight, dimension, capacity (Ah), voltage or CCA columns for any field.
4. identificador and modelo are the product code/model columns (Codigo, SKU, Modelo).
5. tipo is the category column (Rubro, Categoria, Familia); marca is the brand; descripcion is the free-text description.
6. confianza is your overall confidence from 0 to 1.
7. evidencia: for each field give the chosen column, 2-5 sample values copied from it, and a one-line rationale.
8. columnas: classify every header.`

type assistInput struct {
	Headers    []string            `json:"headers"`
	SampleRows []map[string]string `json:"sample_rows"`
	FileName   string              `json:"file_name,omitempty"`
	VendorHint string              `json:"vendor_hint,omitempty"`
}

func buildAssistInput(in MapRequest, rows []model.Row) (string, error) {
	payload := assistInput{Headers: in.Headers, FileName: in.FileName, VendorHint: in.Vendor}
	for i := 0; i < len(rows) && i < sampleRowsLimit; i++ {
		payload.SampleRows = append(payload.SampleRows, rows[i].Map())
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func buildFeedback(violations []string) string {
	var b strings.Builder
	b.WriteString("Your previous answer was rejected because:\n")
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.WriteString("Return a corrected JSON object. Use column names from headers only.")
	return b.String()
}

var errMalformed = errors.New("assistant response does not match the schema")

// decodeAssist: строгий разбор, лишние поля и отсутствие обязательных = отказ.
func decodeAssist(raw string) (assistResponse, error) {
	var out assistResponse
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, fmt.Errorf("%w: empty response", errMalformed)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return out, fmt.Errorf("%w: %v", errMalformed, err)
	}
	for _, k := range []string{"precio_ars", "confianza", "tipo", "modelo", "marca", "descripcion", "identificador"} {
		if _, ok := keys[k]; !ok {
			return out, fmt.Errorf("%w: missing %q", errMalformed, k)
		}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if math.IsNaN(out.Confianza) || out.Confianza < 0 || out.Confianza > 1 {
		return out, fmt.Errorf("%w: confianza %v out of range", errMalformed, out.Confianza)
	}
	return out, nil
}

func (r assistResponse) toMapping() model.ColumnMapping {
	m := model.ColumnMapping{
		Type:        strings.TrimSpace(r.Tipo),
		Model:       strings.TrimSpace(r.Modelo),
		Brand:       strings.TrimSpace(r.Marca),
		Price:       strings.TrimSpace(r.PrecioARS),
		Description: strings.TrimSpace(r.Descripcion),
		Identifier:  strings.TrimSpace(r.Identificador),
		Confidence:  r.Confianza,
		Source:      model.SourceAssistant,
		Evidence:    map[model.Field]model.Evidence{},
	}
	for f, ev := range map[model.Field]assistFieldEvidence{
		model.FieldType:        r.Evidencia.Tipo,
		model.FieldModel:       r.Evidencia.Modelo,
		model.FieldBrand:       r.Evidencia.Marca,
		model.FieldPrice:       r.Evidencia.PrecioARS,
		model.FieldDescription: r.Evidencia.Descripcion,
		model.FieldIdentifier:  r.Evidencia.Identificador,
	} {
		if ev.Columna == "" && len(ev.Muestras) == 0 {
			continue
		}
		samples := ev.Muestras
		if len(samples) > 5 {
			samples = samples[:5]
		}
		m.Evidence[f] = model.Evidence{Column: ev.Columna, Samples: samples, Rationale: ev.Razon}
	}
	if len(r.Columnas) > 0 {
		m.Classification = make(map[string]string, len(r.Columnas))
		for _, c := range r.Columnas {
			m.Classification[c.Columna] = c.Clase
		}
	}
	if n := strings.TrimSpace(r.Notas); n != "" {
		m.Note(n)
	}
	return m
}

// repairMapping заменяет значения ячеек, ошибочно возвращённые вместо имён колонок,
// на наиболее вероятную реальную колонку. После починки confidence <= 0.6.
func repairMapping(m *model.ColumnMapping, s samples) bool {
	repaired := false
	for _, f := range model.Fields {
		got := m.Column(f)
		if got == "" {
			continue
		}
		if h, ok := s.resolveHeader(got); ok {
			m.SetColumn(f, h)
			continue
		}
		col := columnForValue(got, f, s)
		m.SetColumn(f, col)
		repaired = true
		if col == "" {
			m.Note(fmt.Sprintf("%s: %q is not a column and no column matched, cleared", f, got))
		} else {
			m.Note(fmt.Sprintf("%s: %q looks like a cell value, replaced with column %q", f, got, col))
		}
	}
	if repaired && m.Confidence > repairedCeiling {
		m.Confidence = repairedCeiling
	}
	return repaired
}

// columnForValue: колонка, в образцах которой встречается значение; иначе колонка,
// имя которой содержит значение (или наоборот); для цены: лучшая ценовая колонка.
func columnForValue(v string, f model.Field, s samples) string {
	fv := utils.Fold(v)
	for _, h := range s.headers {
		for _, sv := range s.byCol[h] {
			if sv != "" && utils.Fold(sv) == fv {
				return h
			}
		}
	}
	if !looksLikeData(v) {
		for _, h := range s.headers {
			fh := utils.Fold(h)
			if fh != "" && (strings.Contains(fh, fv) || strings.Contains(fv, fh)) {
				return h
			}
		}
	}
	if f == model.FieldPrice {
		return priceBySamples(s)
	}
	return ""
}

func looksLikeData(v string) bool {
	if strings.Contains(v, "$") || utils.IsCodeToken(v) {
		return true
	}
	_, ok := utils.ParsePrice(v)
	return ok
}
