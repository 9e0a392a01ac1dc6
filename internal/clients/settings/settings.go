// Package settings: источник конфигурации цен, redis -> прошлый JSON -> defaults.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"catalog-service/internal/catalog/model"
	"catalog-service/internal/fallback"
)

// Getter: то, что нужно от redis-клиента (*redis.Client подходит).
type Getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type RedisSource struct {
	client Getter
	key    string
}

func NewRedisSource(client Getter, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

// Load читает JSON-документ по ключу. Пустой ключ = нет результата.
func (s *RedisSource) Load(ctx context.Context, base model.Configuration) (model.Configuration, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && strings.TrimSpace(raw) == "") {
		return model.Configuration{}, fallback.ErrNoResult
	}
	if err != nil {
		return model.Configuration{}, fmt.Errorf("redis GET %s: %w", s.key, err)
	}
	return parse([]byte(raw), base)
}

func parse(raw []byte, base model.Configuration) (model.Configuration, error) {
	var doc model.ConfigDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Configuration{}, fmt.Errorf("decode pricing config: %w", err)
	}
	cfg, err := doc.Merge(base)
	if err != nil {
		return model.Configuration{}, err
	}
	if err := check(cfg); err != nil {
		return model.Configuration{}, err
	}
	return cfg, nil
}

func check(c model.Configuration) error {
	switch {
	case c.VAT < 0 || c.VAT > 100:
		return fmt.Errorf("iva %v out of range", c.VAT)
	case c.Markups.Retail < 0 || c.Markups.Wholesale < 0:
		return errors.New("negative markup")
	case c.Discount < 0 || c.Discount >= 100:
		return fmt.Errorf("descuento_proveedor %v out of range", c.Discount)
	}
	for k, v := range c.VendorDiscounts {
		if v < 0 || v >= 100 {
			return fmt.Errorf("discount for %q %v out of range", k, v)
		}
	}
	return nil
}

// Resolver реализует service.ConfigResolver.
type Resolver struct {
	source   *RedisSource // nil = redis не настроен
	defaults model.Configuration
	timeout  time.Duration
	log      zerolog.Logger
}

func NewResolver(source *RedisSource, timeout time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{source: source, defaults: model.DefaultConfiguration(), timeout: timeout, log: log}
}

// Resolve никогда не падает: в худшем случае отдаёт defaults.
func (r *Resolver) Resolve(ctx context.Context, prior []byte) model.Configuration {
	providers := make([]fallback.Provider[model.Configuration], 0, 3)
	if r.source != nil {
		providers = append(providers, fallback.Named("redis", func(ctx context.Context) (model.Configuration, error) {
			if r.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			return r.source.Load(ctx, r.defaults)
		}))
	}
	if len(strings.TrimSpace(string(prior))) > 0 {
		providers = append(providers, fallback.Named("prior", func(context.Context) (model.Configuration, error) {
			return parse(prior, r.defaults)
		}))
	}
	providers = append(providers, fallback.Value("defaults", r.defaults))

	// отменённый запрос не должен оставить прогон без конфигурации
	cfg, used, attempts, err := fallback.First(context.WithoutCancel(ctx), providers...)
	for _, a := range attempts {
		if a.Err != nil && !errors.Is(a.Err, fallback.ErrNoResult) {
			r.log.Warn().Err(a.Err).Str("source", a.Provider).Msg("pricing config source failed")
		}
	}
	if err != nil {
		return r.defaults
	}
	r.log.Debug().Str("source", used).Float64("iva", cfg.VAT).Msg("pricing config resolved")
	return cfg
}
