package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"catalog-service/internal/catalog/model"
)

var nopLog = zerolog.New(io.Discard)

func sheet(name string, rows ...[]string) model.Sheet {
	return model.Sheet{Name: name, Cells: rows}
}

func r(cells ...string) []string { return cells }

func batterySheet() model.Sheet {
	return sheet("Baterias",
		r("LISTA DE PRECIOS - ENERO", "", "", ""),
		r("", "", "", ""),
		r("Codigo", "Descripcion", "Marca", "PVP Off Line"),
		r("M18FD", "Bateria 12x65 auto", "Moura", "$ 125.300"),
		r("M20GD", "Bateria 12x75 auto", "Moura", "$ 148.900"),
		r("M22GD", "Bateria 12x80 pick-up", "Moura", "$ 162.450"),
		r("W45", "Bateria 12x45 moto", "Willard", "$ 58.700"),
		r("W90", "Bateria 12x90 camion", "Willard", "$ 231.000"),
		r("W110", "Bateria 12x110 camion", "Willard", "$ 289.990"),
		r("Precios sujetos a modificacion sin previo aviso", "", "", ""),
		r("BATERIAS AUTO", "", "", ""),
	)
}

func contactsSheet() model.Sheet {
	return sheet("Contactos",
		r("Nombre", "Telefono", "Email"),
		r("Juan", "4444-1234", "juan@prov.com"),
		r("Ana", "4444-9876", "ana@prov.com"),
		r("Luis", "4444-5555", "luis@prov.com"),
	)
}

func rowsOf(headers []string, data ...[]string) []model.Row {
	out := make([]model.Row, 0, len(data))
	for i, d := range data {
		row := model.NewRow("t", i+2)
		for c, h := range headers {
			v := ""
			if c < len(d) {
				v = d[c]
			}
			row.Set(h, v)
		}
		out = append(out, row)
	}
	return out
}

// fakeAssistant отдаёт ответы по очереди; последний повторяется.
type fakeAssistant struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	block   bool
	reqs    []AssistRequest
}

func (f *fakeAssistant) Complete(ctx context.Context, req AssistRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	i := len(f.reqs) - 1
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

func (f *fakeAssistant) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func assistReply(price, code, desc, brand, typ string, conf float64) string {
	b, _ := json.Marshal(assistResponse{
		Tipo:          typ,
		Modelo:        code,
		Identificador: code,
		Marca:         brand,
		PrecioARS:     price,
		Descripcion:   desc,
		Confianza:     conf,
		Columnas:      []assistColumn{},
		Evidencia: assistEvidence{
			PrecioARS: assistFieldEvidence{Columna: price, Muestras: []string{}, Razon: "price"},
		},
	})
	return string(b)
}

type staticConfig struct{ cfg model.Configuration }

func (s staticConfig) Resolve(context.Context, []byte) model.Configuration { return s.cfg }

type fakeEquivalence struct {
	matches map[string]model.Equivalence
	err     error
}

func (f fakeEquivalence) Lookup(_ context.Context, modelID string, _ float64) (model.Equivalence, error) {
	if f.err != nil {
		return model.Equivalence{}, f.err
	}
	if eq, ok := f.matches[modelID]; ok {
		return eq, nil
	}
	return model.NoMatch(), nil
}
