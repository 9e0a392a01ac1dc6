package model

// Workbook: входная книга (только чтение).
type Workbook struct {
	Name   string  // имя файла, подсказка для маппинга
	Sheets []Sheet // в порядке книги
}

// Sheet: сырая сетка ячеек.
type Sheet struct {
	Name  string
	Cells [][]string
}

// Row: строка данных, ключи в порядке заголовков + значения.
type Row struct {
	Sheet  string
	Number int // 1-based номер строки в листе
	keys   []string
	values map[string]string
}

func NewRow(sheet string, number int) Row {
	return Row{Sheet: sheet, Number: number, values: map[string]string{}}
}

// Set добавляет поле; повторный ключ перезаписывает значение, порядок не меняется.
func (r *Row) Set(key, value string) {
	if r.values == nil {
		r.values = map[string]string{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r Row) Get(key string) string { return r.values[key] }

func (r Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

func (r Row) Keys() []string { return append([]string(nil), r.keys...) }

func (r Row) Len() int { return len(r.keys) }

// Each обходит поля в порядке заголовков; fn=false прерывает обход.
func (r Row) Each(fn func(key, value string) bool) {
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Map: копия значений (для JSON и логов).
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// SheetScore: диагностика одного листа.
type SheetScore struct {
	Sheet          string   `json:"sheet"`
	HeaderRow      int      `json:"header_row"` // 0-based
	Headers        []string `json:"headers"`
	PriceColumn    string   `json:"price_column,omitempty"`
	PriceTier      int      `json:"price_tier"` // 1 primary, 2 secondary, 3 tertiary, 0 none
	HasIdentifier  bool     `json:"has_identifier"`
	HasBrand       bool     `json:"has_brand"`
	HasDescription bool     `json:"has_description"`
	HasCategory    bool     `json:"has_category"`
	KeyColumns     int      `json:"key_columns"`
	Rows           int      `json:"rows"`
	Score          int      `json:"score"`
	Discarded      bool     `json:"discarded"`
	Reason         string   `json:"reason,omitempty"`
}

// Selection: результат отбора листов.
type Selection struct {
	Rows        []Row        `json:"-"`
	Headers     []string     `json:"headers"`
	Diagnostics []SheetScore `json:"diagnostics"`
}
