package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/formflowhq/backend/internal/api/handlers"
	"github.com/formflowhq/backend/internal/api/middleware"
	"github.com/formflowhq/backend/internal/auth"
	"github.com/formflowhq/backend/internal/config"
	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/forms"
	"github.com/formflowhq/backend/internal/jobs"
	"github.com/formflowhq/backend/internal/llm"
	"github.com/formflowhq/backend/internal/queue"
	"github.com/formflowhq/backend/internal/storage"
)

// Deps are the collaborators built in main: the extraction pipeline with
// its probed capabilities, the blob store, and the task queue client.
type Deps struct {
	Extractor *extraction.Service
	Caps      extraction.Capabilities
	Blobs     storage.BlobStore
	Queue     *queue.Client
}

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	deps  Deps
	jwt   *auth.JWTMiddleware
	llmGW llm.Gateway
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		deps:  deps,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		llmGW: llm.NewGateway(cfg.LLM),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis, rt.deps.Caps)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	users := auth.NewUserService(rt.db)
	formStore := forms.NewStore(rt.db)
	formSvc := forms.NewService(formStore, rt.llmGW, rt.deps.Extractor, rt.cfg.LLM.DefaultModel)
	jobSvc := jobs.NewService(rt.db)

	authH := handlers.NewAuthHandler(users, formStore)
	formsH := handlers.NewFormsHandler(formSvc, formStore)
	docH := handlers.NewDocumentHandler(jobSvc, rt.deps.Blobs, rt.deps.Queue)

	// The AI generation routes get their own, much tighter budget.
	genLimit := func(next http.Handler) http.Handler { return next }
	if rph := rt.cfg.Server.GenerateRPH; rph > 0 {
		genLimit = middleware.NewRateLimiter(float64(rph)/3600, rph).Limit
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public: forms are filled out by anonymous respondents
		r.Get("/forms/{id}", formsH.Get)
		r.Post("/forms/{id}/submit", formsH.Submit)

		r.Group(func(r chi.Router) {
			r.Use(rt.jwt.Authenticate)

			r.Post("/auth/verify", authH.Verify)
			r.Get("/auth/me", authH.Me)

			r.Get("/forms", formsH.List)
			r.With(genLimit).Post("/forms", formsH.Create)
			r.Post("/forms/{id}/save", formsH.Save)
			r.With(genLimit).Post("/forms/{id}/edit", formsH.Edit)
			r.Post("/forms/{id}/undo", formsH.Undo)
			r.Delete("/forms/{id}", formsH.Delete)
			r.Get("/forms/{id}/responses", formsH.Responses)

			r.Post("/documents", docH.Upload)
			r.Get("/documents", docH.List)
			r.Get("/documents/{id}", docH.Get)
			r.Get("/documents/{id}/status", docH.Status)
		})
	})

	return r
}
