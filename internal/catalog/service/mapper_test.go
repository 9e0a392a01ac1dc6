package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"catalog-service/internal/catalog/model"
)

var listHeaders = []string{"Codigo", "Descripcion", "Marca", "Rubro", "Precio Mayorista", "PVP Off Line", "Peso (kg)", "Precio USD"}

func listRows() []model.Row {
	return rowsOf(listHeaders,
		r("M18FD", "Bateria 12x65", "Moura", "Baterias", "98.000", "$ 125.300", "14,5", "US$ 110"),
		r("M20GD", "Bateria 12x75", "Moura", "Baterias", "115.500", "$ 148.900", "16", "US$ 130"),
		r("W110", "Bateria 12x110", "Willard", "Baterias", "210.000", "$ 289.990", "27", "US$ 250"),
		r("AD-1", "Aditivo nafta", "Bardahl", "Aditivos", "7.900", "$ 9.800", "0,3", "US$ 9"),
	)
}

func TestMapper_ForcedOverrideBeatsAssistant(t *testing.T) {
	t.Parallel()

	fa := &fakeAssistant{replies: []string{
		assistReply("Precio Mayorista", "Codigo", "Descripcion", "Marca", "Rubro", 0.92),
	}}
	m := NewMapper(fa, 0, nopLog)
	got, err := m.Map(context.Background(), MapRequest{Headers: listHeaders, Rows: listRows()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if got.Source != model.SourceAssistant {
		t.Fatalf("source want=assistant got=%s", got.Source)
	}
	if got.Price != "PVP Off Line" {
		t.Fatalf("forced price want=%q got=%q", "PVP Off Line", got.Price)
	}
	if !slices.Contains(got.Forced, model.FieldPrice) {
		t.Fatalf("price must be listed as forced: %v", got.Forced)
	}
	if got.FieldConfidence[model.FieldPrice] != 1 {
		t.Fatalf("forced field confidence want=1 got=%v", got.FieldConfidence[model.FieldPrice])
	}
	if fa.calls() != 1 {
		t.Fatalf("valid answer must not be retried, calls=%d", fa.calls())
	}
}

func TestMapper_RetryWithFeedbackThenAccepted(t *testing.T) {
	t.Parallel()

	fa := &fakeAssistant{replies: []string{
		assistReply("Precio Mayorista", "Codigo", "Descripcion", "Marca", "Rubro", 0.5),
		assistReply("Precio Mayorista", "Codigo", "Descripcion", "Marca", "Rubro", 0.85),
	}}
	m := NewMapper(fa, 0, nopLog)
	got, err := m.Map(context.Background(), MapRequest{Headers: listHeaders, Rows: listRows()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if fa.calls() != 2 {
		t.Fatalf("want 2 calls got=%d", fa.calls())
	}
	if fa.reqs[0].Feedback != "" {
		t.Fatalf("first request must not carry feedback")
	}
	if !strings.Contains(fa.reqs[1].Feedback, "confidence 0.50") {
		t.Fatalf("feedback must name the violated rule: %q", fa.reqs[1].Feedback)
	}
	if fa.reqs[1].Input != fa.reqs[0].Input {
		t.Fatalf("retry must resend the original input")
	}
	if got.Source != model.SourceAssistant || got.Confidence != 0.85 {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestMapper_MalformedTwiceFallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	fa := &fakeAssistant{replies: []string{"Sure! The price column is PVP", `{"precio_ars":"PVP Off Line"}`}}
	m := NewMapper(fa, 0, nopLog)
	got, err := m.Map(context.Background(), MapRequest{Headers: listHeaders, Rows: listRows()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if fa.calls() != 2 {
		t.Fatalf("want one retry, calls=%d", fa.calls())
	}
	if got.Source != model.SourceHeuristic {
		t.Fatalf("want heuristic fallback got=%s", got.Source)
	}
	if got.Price != "PVP Off Line" || got.Identifier != "Codigo" || got.Type != "Rubro" {
		t.Fatalf("unexpected heuristic mapping: %+v", got)
	}
}

func TestMapper_UnreachableAssistantIsNotRetried(t *testing.T) {
	t.Parallel()

	fa := &fakeAssistant{errs: []error{errors.New("connection refused")}}
	m := NewMapper(fa, 0, nopLog)
	got, err := m.Map(context.Background(), MapRequest{Headers: listHeaders, Rows: listRows()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if fa.calls() != 1 || got.Source != model.SourceHeuristic {
		t.Fatalf("want single call and heuristic, calls=%d source=%s", fa.calls(), got.Source)
	}
}

func TestMapper_BlacklistedAssistantChoiceRejected(t *testing.T) {
	t.Parallel()

	fa := &fakeAssistant{replies: []string{
		assistReply("Precio USD", "Codigo", "Descripcion", "Peso (kg)", "Rubro", 0.95),
	}}
	m := NewMapper(fa, 0, nopLog)
	got, err := m.Map(context.Background(), MapRequest{Headers: listHeaders, Rows: listRows()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if fa.calls() != 2 {
		t.Fatalf("blacklisted answer must be retried once, calls=%d", fa.calls())
	}
	if !strings.Contains(fa.reqs[1].Feedback, "blacklisted column \"Precio USD\"") {
		t.Fatalf("feedback must list blacklist rule: %q", fa.reqs[1].Feedback)
	}
	assertNoBlacklisted(t, got)
}

func TestMapper_NoBlacklistedColumnsEver(t *testing.T) {
	t.Parallel()

	headerSets := [][]string{
		{"Pallet", "Alto", "Ancho", "Precio U$S", "Modelo"},
		{"Capacidad (Ah)", "Voltaje", "CCA", "Importe", "Codigo"},
		{"Cod", "Medidas", "Precio Dolar", "Precio"},
	}
	for _, hs := range headerSets {
		data := make([]string, len(hs))
		for i := range data {
			data[i] = "150.000"
		}
		m := NewMapper(nil, 0, nopLog)
		got, err := m.Map(context.Background(), MapRequest{Headers: hs, Rows: rowsOf(hs, data, data)})
		if err != nil && !errors.Is(err, ErrNoKeyColumns) {
			t.Fatalf("%v: %v", hs, err)
		}
		assertNoBlacklisted(t, got)
	}
}

func assertNoBlacklisted(t *testing.T, m model.ColumnMapping) {
	t.Helper()
	for _, f := range model.Fields {
		col := m.Column(f)
		if col != "" && (isDimensionHeader(col) || isForeignHeader(col)) {
			t.Fatalf("field %s references blacklisted column %q", f, col)
		}
	}
}

func TestMapper_NoKeyColumns(t *testing.T) {
	t.Parallel()

	hs := []string{"Observaciones", "Deposito"}
	m := NewMapper(nil, 0, nopLog)
	_, err := m.Map(context.Background(), MapRequest{Headers: hs, Rows: rowsOf(hs, r("sin stock", "central"))})
	if !errors.Is(err, ErrNoKeyColumns) {
		t.Fatalf("want ErrNoKeyColumns got=%v", err)
	}
}

func TestHeuristicMapping_PriceBySamples(t *testing.T) {
	t.Parallel()

	hs := []string{"Cod. Art", "Detalle", "Col 3", "Col 4"}
	s := takeSamples(hs, rowsOf(hs,
		r("A1", "Aditivo", "3", "15.300"),
		r("A2", "Refrigerante", "7", "22.800"),
	))
	m := heuristicMapping(s)
	if m.Price != "Col 4" {
		t.Fatalf("price by samples want=%q got=%q", "Col 4", m.Price)
	}
	if m.FieldConfidence[model.FieldPrice] != confBySample {
		t.Fatalf("sample-based price confidence want=%v got=%v", confBySample, m.FieldConfidence[model.FieldPrice])
	}
	if m.Identifier != "Cod. Art" || m.Description != "Detalle" {
		t.Fatalf("unexpected mapping %+v", m)
	}
}

func TestHeuristicConfidence_StableSum(t *testing.T) {
	t.Parallel()

	price, ident, desc, brand, typ := 0.7, 0.3, 0.9, 0.7, 0.3
	m := model.ColumnMapping{
		Type: "Rubro", Identifier: "Codigo", Brand: "Marca", Description: "Descripcion", Price: "PVP Off Line",
		FieldConfidence: map[model.Field]float64{
			model.FieldPrice:       price,
			model.FieldIdentifier:  ident,
			model.FieldDescription: desc,
			model.FieldBrand:       brand,
			model.FieldType:        typ,
		},
	}
	want := 0.0
	for _, c := range []struct{ w, v float64 }{{0.4, price}, {0.2, ident}, {0.2, desc}, {0.1, brand}, {0.1, typ}} {
		want += c.w * c.v
	}
	for i := 0; i < 200; i++ {
		if got := heuristicConfidence(m); got != want {
			t.Fatalf("run %d: want=%v got=%v", i, want, got)
		}
	}
}

func TestRepairMapping_CellValueReplacedWithColumn(t *testing.T) {
	t.Parallel()

	s := takeSamples(listHeaders, listRows())
	m := model.ColumnMapping{Price: "$ 148.900", Model: "codigo", Brand: "WILLARD", Confidence: 0.9}
	if !repairMapping(&m, s) {
		t.Fatalf("expected repair")
	}
	if m.Price != "PVP Off Line" {
		t.Fatalf("price want=%q got=%q", "PVP Off Line", m.Price)
	}
	if m.Model != "Codigo" {
		t.Fatalf("case-folded header must resolve silently, got %q", m.Model)
	}
	if m.Brand != "Marca" {
		t.Fatalf("brand value must map back to its column, got %q", m.Brand)
	}
	if m.Confidence > repairedCeiling {
		t.Fatalf("confidence must drop to <= %.1f got=%v", repairedCeiling, m.Confidence)
	}
	if len(m.Notes) != 2 {
		t.Fatalf("want 2 repair notes got=%v", m.Notes)
	}
}

func TestValidateMapping_PricePlausibility(t *testing.T) {
	t.Parallel()

	hs := []string{"Codigo", "Precio"}
	s := takeSamples(hs, rowsOf(hs, r("A", "9.800"), r("B", "sin precio"), r("C", "12.000")))
	v := validateMapping(model.ColumnMapping{Identifier: "Codigo", Price: "Precio", Confidence: 0.9}, s)
	if len(v) != 2 {
		t.Fatalf("want coverage and maximum violations got=%v", v)
	}
}

func TestDecodeAssist_Strict(t *testing.T) {
	t.Parallel()

	if _, err := decodeAssist(assistReply("PVP Off Line", "Codigo", "", "", "", 0.8)); err != nil {
		t.Fatalf("valid reply rejected: %v", err)
	}
	bad := []string{
		"",
		"[]",
		`{"precio_ars":"x"}`,
		strings.Replace(assistReply("P", "C", "", "", "", 0.8), `"notas"`, `"extra":1,"notas"`, 1),
		assistReply("P", "C", "", "", "", 1.5),
	}
	for _, raw := range bad {
		if _, err := decodeAssist(raw); !errors.Is(err, errMalformed) {
			t.Fatalf("%q must be rejected, err=%v", raw, err)
		}
	}
}
