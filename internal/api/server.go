// Package api exposes the reminder entrypoints over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/reminders"
	"go.uber.org/zap"
)

// Service is the set of entrypoints served over HTTP.
type Service interface {
	Create(ctx context.Context, in reminders.CreateInput) (*models.Reminder, error)
	Cancel(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*models.Reminder, error)
	ListActive(ctx context.Context, recipient string) ([]*models.Reminder, error)
	Upcoming(ctx context.Context, horizon time.Duration) ([]*models.Reminder, error)
	Health(ctx context.Context) reminders.Health
	DispatchNow() bool
}

type Server struct {
	svc            Service
	logger         *zap.SugaredLogger
	defaultHorizon time.Duration
}

func New(svc Service, logger *zap.SugaredLogger, defaultHorizon time.Duration) *Server {
	if defaultHorizon <= 0 {
		defaultHorizon = time.Hour
	}
	return &Server{svc: svc, logger: logger, defaultHorizon: defaultHorizon}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer,
		middleware.RealIP,
		middleware.CleanPath,
		requestLogger(s.logger),
		middleware.Timeout(30*time.Second),
	)

	r.Get("/health", s.health)

	r.Route("/reminders", func(r chi.Router) {
		r.Post("/", s.createReminder)
		r.Get("/", s.listReminders)
		r.Get("/upcoming", s.upcomingReminders)
		r.Post("/dispatch", s.dispatchNow)
		r.Get("/{id}", s.getReminder)
		r.Delete("/{id}", s.cancelReminder)
	})

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.SugaredLogger) func(next http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Infow("Got request",
				"status", ww.Status(),
				"method", r.Method,
				"url", r.URL.String(),
				"reqIp", r.RemoteAddr,
				"size", ww.BytesWritten(),
				"latency", time.Since(start).String(),
			)
		})
	}
}
