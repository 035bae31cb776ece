package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"roe-outage-bot/internal/usecase/pipeline"
)

// StatusProvider отдаёт состояние конвейера для /healthz.
type StatusProvider interface {
	LastReport() (pipeline.RunReport, bool)
	RetryPending() bool
}

// Server оборачивает chi.Router с базовыми middlewares.
type Server struct {
	Router chi.Router
	log    zerolog.Logger
	srv    *http.Server
}

type healthResponse struct {
	Status       string              `json:"status"`
	RetryPending bool                `json:"retry_pending"`
	LastRun      *pipeline.RunReport `json:"last_run,omitempty"`
}

// NewServer создаёт HTTP сервер с /metrics и /healthz на адресе addr.
func NewServer(addr string, logger zerolog.Logger, status StatusProvider) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "starting", RetryPending: status.RetryPending()}
		if last, ok := status.LastReport(); ok {
			resp.Status = string(last.Outcome)
			resp.LastRun = &last
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error().Err(err).Msg("http: не удалось записать ответ")
		}
	})
	return &Server{
		Router: r,
		log:    logger,
		srv: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// Start слушает адрес, переданный в NewServer, и блокируется до остановки.
// После Shutdown возвращает nil.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http: сервер запущен")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown корректно завершает работу сервера. Вызванный до Start,
// он не даёт серверу запуститься.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
