package api

import (
	"context"
	"fmt"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/api/handlers"
	"github.com/NealChanAI/stock-investment/internal/api/middleware"
	"github.com/NealChanAI/stock-investment/internal/infra/database/postgres"
	"github.com/NealChanAI/stock-investment/internal/pkg/config"
	"github.com/NealChanAI/stock-investment/internal/service/screen"
)

// Server is the HTTP read surface over stored analysis runs.
type Server struct {
	httpServer *http.Server
}

// NewServer wires the router. With a nil reader (persistence disabled)
// only the health endpoints are registered.
func NewServer(cfg *config.Config, pool *postgres.Pool, reader handlers.SnapshotReader, version string) *Server {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)

	healthHandler := handlers.NewHealthHandler(pool, version)
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)

	if reader != nil {
		snapshotHandler := handlers.NewSnapshotHandler(reader, screen.NewEngine(nil))
		v1 := r.PathPrefix("/api/v1").Subrouter()
		v1.HandleFunc("/snapshots/latest", snapshotHandler.GetLatestRun).Methods(http.MethodGet)
		v1.HandleFunc("/snapshots/{code}", snapshotHandler.GetByCode).Methods(http.MethodGet)
		v1.HandleFunc("/screen/latest", snapshotHandler.ScreenLatest).Methods(http.MethodGet)
	}

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", middleware.HeaderRequestID}),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      cors(r),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}
