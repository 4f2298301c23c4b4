package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"myduid/internal/log"
	"myduid/internal/middleware/ratelimit"
	"myduid/internal/middleware/security"
	"myduid/internal/middleware/trace"
)

type Config struct {
	Addr string
	// AuthHeader names the header carrying the caller's user id.
	AuthHeader         string
	RateLimitPerMinute int
	// DefaultListLimit applies to transaction listings without ?limit=.
	DefaultListLimit int
	Now              func() time.Time
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, svc Services, logger *log.Logger) *Server {
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "X-User-ID"
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = 10
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(cfg, svc, logger, limiter),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		limiter: limiter,
	}
	return s
}

func newRouter(cfg Config, svc Services, logger *log.Logger, limiter *ratelimit.Limiter) http.Handler {
	a := &api{svc: svc, defaultLimit: cfg.DefaultListLimit, now: cfg.Now}
	detector := security.NewDetector()
	tracer := trace.NewMiddleware(logger, detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	rateKey := func(r *http.Request) string {
		if c := security.CallerFrom(r.Context()); c.Authenticated() {
			return "user:" + c.UserID
		}
		return "ip:" + detector.ExtractClientIP(r)
	}
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded", log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, MsgRateLimited).Write(w)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracer.Middleware)
	r.Use(headers.Middleware)
	r.Use(detector.Middleware)
	r.Use(middleware.Compress(5))
	r.Use(security.Identity(cfg.AuthHeader))
	r.Use(limiter.Middleware(rateKey, onLimit))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, MsgNotFound).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	r.Get("/healthz", a.handleHealth)
	r.Get("/readyz", a.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", a.handleRegister)

		r.Get("/transactions", a.handleListTransactions)
		r.Post("/transactions", a.handleCreateTransaction)
		r.Delete("/transactions/{id}", a.handleDeleteTransaction)

		r.Get("/balance", a.handleBalance)
		r.Get("/stats/monthly", a.handleMonthlyStats)
		r.Get("/stats/financial", a.handleFinancialStats)
		r.Get("/dashboard", a.handleDashboard)

		r.Get("/goals", a.handleListGoals)
		r.Post("/goals", a.handleCreateGoal)
		r.Delete("/goals/{id}", a.handleDeleteGoal)
		r.Post("/goals/{id}/deposit", a.handleDeposit)

		r.Get("/export", a.handleExport)
	})

	return r
}

// Shutdown stops the limiter and drains the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
