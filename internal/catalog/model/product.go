package model

type Equivalence struct {
	Found          bool    `json:"encontrada"`
	MatchedModel   string  `json:"modelo,omitempty"`
	ReferencePrice float64 `json:"precio_referencia,omitempty"`
	Category       string  `json:"categoria,omitempty"`
	Available      bool    `json:"disponible"`
}

func NoMatch() Equivalence { return Equivalence{} }

type ChannelPricing struct {
	Net              float64 `json:"precio_neto"`
	Final            float64 `json:"precio_final"` // с НДС, кратно 10
	Markup           float64 `json:"markup_aplicado"`
	Profitability    float64 `json:"rentabilidad"`
	ProfitabilityPct string  `json:"rentabilidad_pct"`
	Rentable         bool    `json:"rentable"`
	Adjusted         bool    `json:"ajustado,omitempty"`
}

type CurrencyCheck struct {
	Plausible  bool    `json:"plausible"`
	Confidence float64 `json:"confianza"`
	Reason     string  `json:"razon"`
}

// ProductRecord собирается один раз и дальше не меняется.
type ProductRecord struct {
	Sheet       string `json:"hoja"`
	RowNumber   int    `json:"fila"`
	Type        string `json:"tipo"`
	Model       string `json:"modelo"`
	Description string `json:"descripcion"`
	Brand       string `json:"marca"`

	PriceRaw              string  `json:"precio_original,omitempty"`
	PriceBase             float64 `json:"precio_base"`
	Discount              float64 `json:"descuento_aplicado"`
	PriceBaseRetail       float64 `json:"precio_base_minorista"`
	PriceBaseWholesale    float64 `json:"precio_base_mayorista"`
	CostEstimateRetail    float64 `json:"costo_estimado_minorista"`
	CostEstimateWholesale float64 `json:"costo_estimado_mayorista"`

	Equivalence Equivalence    `json:"equivalencia"`
	Retail      ChannelPricing `json:"minorista"`
	Wholesale   ChannelPricing `json:"mayorista"`
	Currency    CurrencyCheck  `json:"moneda"`

	Unpriced          bool `json:"sin_precio"`
	WholesaleAdjusted bool `json:"ajuste_mayorista"`
}

type Stats struct {
	Total             int `json:"total_productos"`
	RentableRetail    int `json:"rentables_minorista"`
	RentableWholesale int `json:"rentables_mayorista"`
	WithEquivalence   int `json:"con_equivalencia"`
	Unpriced          int `json:"sin_precio"`
	Adjusted          int `json:"ajustes_mayorista"`
}

type Result struct {
	Products    []ProductRecord `json:"productos"`
	Stats       Stats           `json:"estadisticas"`
	Mapping     ColumnMapping   `json:"mapeo"`
	Diagnostics []SheetScore    `json:"diagnostico_hojas"`
	Config      Configuration   `json:"configuracion"`
}
