package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/speoper/dispatch/internal/config"
	"github.com/speoper/dispatch/internal/extract"
	httpmiddleware "github.com/speoper/dispatch/internal/http/middleware"
	"github.com/speoper/dispatch/internal/operation"
	"github.com/speoper/dispatch/internal/transport"
	"github.com/speoper/dispatch/internal/user"
)

// Handler aggregates the services behind the HTTP surface.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	users         *user.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter returns the configured router.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, users *user.Service) (http.Handler, error) {
	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		users:         users,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	var extractor *extract.Client
	if cfg.OpenAIKey != "" {
		client, err := extract.New(extract.Config{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel})
		if err != nil {
			return nil, err
		}
		extractor = client
	} else {
		log.Warn().Msg("OPENAI_API_KEY unset, fill-with-ai disabled")
	}

	transportRepo := transport.NewRepository(pool)
	transportService := transport.NewService(transportRepo)
	transportHandler := transport.NewHandler(transportService)

	operationRepo := operation.NewRepository(pool)
	var operationService *operation.Service
	if extractor != nil {
		operationService = operation.NewService(operationRepo, users, transportService, extractor)
	} else {
		operationService = operation.NewService(operationRepo, users, transportService, nil)
	}
	operationHandler := operation.NewHandler(operationService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/registration", h.Registration)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(users.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		transport.Mount(private, transportHandler)
		operation.Mount(private, operationHandler)
	})

	return r, nil
}

// Health answers with a simple status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Ready checks the database connection.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unavailable", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("http handler error")
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
