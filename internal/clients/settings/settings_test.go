package settings

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeRedis struct {
	val string
	err error
	key string
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.key = key
	return redis.NewStringResult(f.val, f.err)
}

var nopLog = zerolog.New(io.Discard)

func TestResolve_RedisWins(t *testing.T) {
	t.Parallel()

	fr := &fakeRedis{val: `{"iva":10.5,"markups":{"minorista":50}}`}
	r := NewResolver(NewRedisSource(fr, "catalog:pricing-config"), time.Second, nopLog)

	cfg := r.Resolve(context.Background(), []byte(`{"iva":27}`))
	if fr.key != "catalog:pricing-config" {
		t.Fatalf("key want=catalog:pricing-config got=%q", fr.key)
	}
	if cfg.VAT != 10.5 || cfg.Markups.Retail != 50 {
		t.Fatalf("redis document must win: %+v", cfg)
	}
	if cfg.Markups.Wholesale != 22 {
		t.Fatalf("missing fields come from defaults, wholesale=%v", cfg.Markups.Wholesale)
	}
}

func TestResolve_FallsBackToPrior(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeRedis{
		"missing key":  {err: redis.Nil},
		"unreachable":  {err: errors.New("dial tcp: connection refused")},
		"broken json":  {val: `{"iva":`},
		"out of range": {val: `{"iva":150}`},
		"vendor clash": {val: `{"descuentos_por_proveedor":{"Moura":3,"MOURA ":7}}`},
	}
	for name, fr := range cases {
		r := NewResolver(NewRedisSource(fr, "k"), time.Second, nopLog)
		cfg := r.Resolve(context.Background(), []byte(`{"iva":27,"descuentos_por_proveedor":{"Moura":5}}`))
		if cfg.VAT != 27 || cfg.VendorDiscounts["Moura"] != 5 {
			t.Fatalf("%s: prior config expected, got %+v", name, cfg)
		}
	}
}

func TestResolve_Defaults(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, 0, nopLog)
	for _, prior := range [][]byte{nil, []byte("  "), []byte("not json"), []byte(`{"descuento_proveedor":-3}`)} {
		cfg := r.Resolve(context.Background(), prior)
		if cfg.VAT != 21 || cfg.Markups.Retail != 60 || cfg.Markups.Wholesale != 22 || cfg.Discount != 0 {
			t.Fatalf("prior %q: defaults expected, got %+v", prior, cfg)
		}
	}
}

func TestResolve_CanceledRequestStillResolves(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := NewResolver(nil, 0, nopLog).Resolve(ctx, []byte(`{"iva":10.5}`))
	if cfg.VAT != 10.5 {
		t.Fatalf("want prior config despite canceled context, got %+v", cfg)
	}
}
