package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type ledgerResponse struct {
	Count int      `json:"count"`
	Paths []string `json:"paths"`
}

func ledgerHandler(ledger repository.LedgerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paths, err := ledger.Load(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load ledger")
			return
		}
		writeJSON(w, http.StatusOK, ledgerResponse{Count: len(paths), Paths: paths})
	}
}

func schedulesHandler(sched ScheduleController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sched.Entries())
	}
}

// runScheduleHandler fires a schedule entry now and waits for the run to finish.
func runScheduleHandler(sched ScheduleController, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		err := sched.RunNow(r.Context(), name)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "schedule": name})
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown schedule")
		default:
			logging.With(r.Context(), logger).Error().Err(err).Str("schedule", name).Msg("manual run failed")
			writeError(w, http.StatusBadGateway, err.Error())
		}
	}
}
