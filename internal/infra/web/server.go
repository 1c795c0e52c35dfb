package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-event-bot/internal/config"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/infra/api"
	"telegram-event-bot/internal/infra/api/apiv1"
	"telegram-event-bot/internal/usecase"
)

// requestTimeout bounds every request, webhook posts included; update
// handling itself runs on the worker pool and is not tied to the request
// context.
const requestTimeout = 30 * time.Second

// Server is the single HTTP surface of the service: health and metrics in
// the open, the Telegram webhook on its token-derived path, and the v1
// admin API behind a JWT session.
type Server struct {
	statsUC usecase.StatsUseCase
	userUC  usecase.UserUseCase
	eventUC usecase.EventUseCase
	ai      adapter.AIServiceAdapter
	cfg     *config.AdminConfig
	auth    *AuthManager
	log     *zerolog.Logger

	webhookPath    string
	webhookHandler http.Handler
}

func NewServer(
	statsUC usecase.StatsUseCase,
	userUC usecase.UserUseCase,
	eventUC usecase.EventUseCase,
	ai adapter.AIServiceAdapter,
	cfg *config.AdminConfig,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC: statsUC,
		userUC:  userUC,
		eventUC: eventUC,
		ai:      ai,
		cfg:     cfg,
		auth:    auth,
		log:     logger,
	}
}

// MountWebhook attaches the Telegram webhook endpoint. Call before Router.
func (s *Server) MountWebhook(path string, h http.Handler) {
	s.webhookPath = path
	s.webhookHandler = h
}

// Router assembles the chi mux with the shared middleware chain.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		api.TraceID(),
		api.RequestLog(s.log),
		api.Recover(s.log),
		api.Timeout(requestTimeout),
	)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/login", s.handleLogin)
	r.Post("/api/v1/auth/logout", s.handleLogout)

	if s.webhookPath != "" && s.webhookHandler != nil {
		r.Post(s.webhookPath, s.webhookHandler.ServeHTTP)
	}

	r.Group(func(gr chi.Router) {
		gr.Use(s.authMiddleware)
		apiv1.RegisterAPIV1(gr, apiv1.NewServer(s.statsUC, s.userUC, s.eventUC, s.ai))
	})

	return r
}

// authMiddleware admits only requests carrying a valid admin JWT, either as
// a Bearer token or as the session cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
