package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	catHnd "catalog-service/internal/catalog/handler"
	"catalog-service/internal/config"
	"catalog-service/internal/middleware"
	"catalog-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, pipeline catHnd.Processor) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: requestID -> recover (нужен req_id) -> logging -> cors
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.Get("/health", handlers.Health)

	r.Route("/catalog", func(r chi.Router) {
		// лимит тела только там, где есть загрузка
		r.With(middleware.LimitBytes(int64(cfg.MaxUploadMB)<<20)).Post("/process", catHnd.Process(cfg, logger, pipeline))
		// схема ответа ассистента, для аудита маппинга
		r.Get("/schema", catHnd.Schema)
	})

	return r
}
