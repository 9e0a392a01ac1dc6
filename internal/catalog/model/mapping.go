package model

// Field: семантическое поле каталога.
type Field string

const (
	FieldType        Field = "tipo"
	FieldIdentifier  Field = "identificador"
	FieldModel       Field = "modelo"
	FieldBrand       Field = "marca"
	FieldDescription Field = "descripcion"
	FieldPrice       Field = "precio"
)

// Fields: все поля в каноническом порядке.
var Fields = []Field{FieldType, FieldIdentifier, FieldModel, FieldBrand, FieldDescription, FieldPrice}

type MappingSource string

const (
	SourceAssistant MappingSource = "assistant"
	SourceHeuristic MappingSource = "heuristic"
)

type Evidence struct {
	Column    string   `json:"columna"`
	Samples   []string `json:"muestras,omitempty"`
	Rationale string   `json:"razon,omitempty"`
}

// ColumnMapping: заголовок для каждого поля ("" = не найдено).
type ColumnMapping struct {
	Type        string `json:"tipo,omitempty"`
	Identifier  string `json:"identificador,omitempty"`
	Model       string `json:"modelo,omitempty"`
	Brand       string `json:"marca,omitempty"`
	Description string `json:"descripcion,omitempty"`
	Price       string `json:"precio,omitempty"`

	Confidence      float64            `json:"confianza"`
	FieldConfidence map[Field]float64  `json:"confianza_campos,omitempty"`
	Evidence        map[Field]Evidence `json:"evidencia,omitempty"`
	Classification  map[string]string  `json:"clasificacion,omitempty"` // заголовок -> класс
	Source          MappingSource      `json:"fuente"`
	Forced          []Field            `json:"forzados,omitempty"`
	Notes           []string           `json:"notas,omitempty"`
}

func (m ColumnMapping) Column(f Field) string {
	switch f {
	case FieldType:
		return m.Type
	case FieldIdentifier:
		return m.Identifier
	case FieldModel:
		return m.Model
	case FieldBrand:
		return m.Brand
	case FieldDescription:
		return m.Description
	case FieldPrice:
		return m.Price
	}
	return ""
}

func (m *ColumnMapping) SetColumn(f Field, col string) {
	switch f {
	case FieldType:
		m.Type = col
	case FieldIdentifier:
		m.Identifier = col
	case FieldModel:
		m.Model = col
	case FieldBrand:
		m.Brand = col
	case FieldDescription:
		m.Description = col
	case FieldPrice:
		m.Price = col
	}
}

// Value: типизированный доступ к строке через маппинг.
func (m ColumnMapping) Value(r Row, f Field) string {
	col := m.Column(f)
	if col == "" {
		return ""
	}
	return r.Get(col)
}

func (m *ColumnMapping) Note(s string) { m.Notes = append(m.Notes, s) }
