package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/domain/ports/repository"
)

// ScheduleController is the scheduler surface exposed to operators.
type ScheduleController interface {
	Entries() []model.ScheduleStatus
	RunNow(ctx context.Context, name string) error
}

// Server is the admin HTTP API: health, metrics, ledger and schedule control.
type Server struct {
	ledger repository.LedgerRepository
	sched  ScheduleController
	auth   *AuthManager
	log    *zerolog.Logger
}

func NewServer(ledger repository.LedgerRepository, sched ScheduleController, auth *AuthManager, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		ledger: ledger,
		sched:  sched,
		auth:   auth,
		log:    &webLog,
	}
}

// Router builds the chi router with every admin route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(traceID, recoverer(s.log), requestLog(s.log))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/ledger", ledgerHandler(s.ledger))
			r.Get("/schedules", schedulesHandler(s.sched))
			r.Post("/schedules/{name}/run", runScheduleHandler(s.sched, s.log))
		})
	})
	return r
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", port).Msg("admin API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("admin API shutdown: %w", err)
		}
		s.log.Info().Msg("admin API stopped")
		return nil
	}
}
