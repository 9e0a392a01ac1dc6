package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeDoc(t *testing.T, raw string) ConfigDocument {
	t.Helper()
	var d ConfigDocument
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return d
}

func TestMerge_PartialDocument(t *testing.T) {
	t.Parallel()

	cfg, err := decodeDoc(t, `{"iva":10.5,"markups":{"mayorista":30},"descuentos_por_proveedor":{" Moura ":5,"":9}}`).
		Merge(DefaultConfiguration())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if cfg.VAT != 10.5 || cfg.Markups.Retail != 60 || cfg.Markups.Wholesale != 30 {
		t.Fatalf("unexpected merge result %+v", cfg)
	}
	if len(cfg.VendorDiscounts) != 1 || cfg.VendorDiscounts["Moura"] != 5 {
		t.Fatalf("vendor keys must be trimmed and blanks dropped: %v", cfg.VendorDiscounts)
	}
}

func TestMerge_RejectsFoldedVendorCollision(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"descuentos_por_proveedor":{"Moura":5,"MOURA":7}}`,
		`{"descuentos_por_proveedor":{"Baterías Sur":5,"baterias  sur":7}}`,
	} {
		_, err := decodeDoc(t, raw).Merge(DefaultConfiguration())
		if err == nil || !strings.Contains(err.Error(), "duplicates") {
			t.Fatalf("%s: want collision error got=%v", raw, err)
		}
	}
}

func TestDiscountFor(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfiguration()
	cfg.Discount = 10
	cfg.VendorDiscounts = map[string]float64{"Baterías Sur": 4, "Moura": 5}

	cases := map[string]float64{
		"MOURA":         5,
		" baterias sur": 4,
		"Willard":       10,
		"":              10,
	}
	for vendor, want := range cases {
		if got := cfg.DiscountFor(vendor); got != want {
			t.Fatalf("%q want=%v got=%v", vendor, want, got)
		}
	}
}
