package utils

import "testing"

func TestFold(t *testing.T) {
	t.Parallel()

	if got := Fold("  Código   ARTÍCULO "); got != "codigo articulo" {
		t.Fatalf("want=%q got=%q", "codigo articulo", got)
	}
	if got := FoldKey("Precio (U$S)"); got != "precio u$s" {
		t.Fatalf("want=%q got=%q", "precio u$s", got)
	}
}

func TestHasToken(t *testing.T) {
	t.Parallel()

	if !HasToken("capacidad ah", "ah") {
		t.Fatalf("expected token match")
	}
	if HasToken("marca", "ma") {
		t.Fatalf("substring must not match as token")
	}
}
