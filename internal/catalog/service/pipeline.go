package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"catalog-service/internal/catalog/model"
)

// ConfigResolver отдаёт снимок конфигурации; недоступность источника он
// прячет сам (defaults), поэтому ошибки не возвращает.
type ConfigResolver interface {
	Resolve(ctx context.Context, prior []byte) model.Configuration
}

// EquivalenceLookup: внешний сервис эквивалентов.
type EquivalenceLookup interface {
	Lookup(ctx context.Context, modelID string, price float64) (model.Equivalence, error)
}

type ProcessRequest struct {
	Workbook    model.Workbook
	Vendor      string // принудительная марка/поставщик
	PriorConfig []byte // JSON предыдущей конфигурации, может быть пустым
}

type Pipeline struct {
	mapper      *Mapper
	config      ConfigResolver
	equivalence EquivalenceLookup
	workers     int
	timeout     time.Duration
	log         zerolog.Logger
}

type Option func(*Pipeline)

func WithEquivalence(e EquivalenceLookup) Option { return func(p *Pipeline) { p.equivalence = e } }
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}
func WithTimeout(d time.Duration) Option { return func(p *Pipeline) { p.timeout = d } }

func NewPipeline(mapper *Mapper, config ConfigResolver, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{mapper: mapper, config: config, workers: 8, timeout: 30 * time.Second, log: log}
	for _, o := range opts {
		o(p)
	}
	return p
}

type outcome struct {
	res model.Result
	err error
}

// Process: весь прогон под общим таймаутом; работа гоняется против таймера,
// по истечении возвращается ErrTimeout, а не частичный результат.
func (p *Pipeline) Process(ctx context.Context, req ProcessRequest) (model.Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		res, err := p.run(ctx, req)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(o.err, context.DeadlineExceeded) {
			return model.Result{}, ErrTimeout
		}
		return o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.log.Warn().Dur("timeout", p.timeout).Str("file", req.Workbook.Name).Msg("processing timed out")
			return model.Result{}, ErrTimeout
		}
		return model.Result{}, ctx.Err()
	}
}

func (p *Pipeline) run(ctx context.Context, req ProcessRequest) (model.Result, error) {
	start := time.Now()
	cfg := p.config.Resolve(ctx, req.PriorConfig)

	sel, err := SelectSheets(req.Workbook, p.log)
	if err != nil {
		return model.Result{}, err
	}

	mapping, err := p.mapper.Map(ctx, MapRequest{
		Headers:  sel.Headers,
		Rows:     sel.Rows,
		FileName: req.Workbook.Name,
		Vendor:   req.Vendor,
	})
	if err != nil {
		if errors.Is(err, ErrNoKeyColumns) {
			return model.Result{}, &InputError{Reason: err.Error(), Diagnostics: sel.Diagnostics}
		}
		return model.Result{}, err
	}

	products := make([]model.ProductRecord, len(sel.Rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, row := range sel.Rows {
		g.Go(func() error {
			in := extract(row, mapping, req.Vendor)
			products[i] = Price(in, cfg, p.lookup(gctx, in))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return model.Result{}, err
	}

	res := model.Result{
		Products:    products,
		Stats:       collectStats(products),
		Mapping:     mapping,
		Diagnostics: sel.Diagnostics,
		Config:      cfg,
	}
	p.log.Info().
		Str("file", req.Workbook.Name).
		Int("products", res.Stats.Total).
		Int("unpriced", res.Stats.Unpriced).
		Int("with_equivalence", res.Stats.WithEquivalence).
		Int("wholesale_adjusted", res.Stats.Adjusted).
		Dur("elapsed", time.Since(start)).
		Msg("catalog priced")
	return res, nil
}

// lookup: ошибки коллаборатора логируются и превращаются в «нет совпадения».
func (p *Pipeline) lookup(ctx context.Context, in PriceInput) model.Equivalence {
	if p.equivalence == nil || in.Model == "" || in.PriceBase <= 0 {
		return model.NoMatch()
	}
	eq, err := p.equivalence.Lookup(ctx, in.Model, in.PriceBase)
	if err != nil {
		p.log.Warn().Err(err).Str("model", in.Model).Msg("equivalence lookup failed")
		return model.NoMatch()
	}
	return eq
}

func collectStats(products []model.ProductRecord) model.Stats {
	st := model.Stats{Total: len(products)}
	for _, pr := range products {
		if pr.Retail.Rentable && !pr.Unpriced {
			st.RentableRetail++
		}
		if pr.Wholesale.Rentable && !pr.Unpriced {
			st.RentableWholesale++
		}
		if pr.Equivalence.Found {
			st.WithEquivalence++
		}
		if pr.Unpriced {
			st.Unpriced++
		}
		if pr.WholesaleAdjusted {
			st.Adjusted++
		}
	}
	return st
}
