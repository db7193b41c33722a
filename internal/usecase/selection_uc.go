package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/logging"
	"telegram-media-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Compile-time check
var _ SelectionUseCase = (*selectionUC)(nil)

// SelectionUseCase picks one file from a folder that has never been broadcast.
type SelectionUseCase interface {
	Select(ctx context.Context, folder string) (string, error)
}

// SelectionOption customises a selection use case.
type SelectionOption func(*selectionUC)

// WithPicker replaces the uniform random index source; pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) SelectionOption {
	return func(uc *selectionUC) {
		if pick != nil {
			uc.pick = pick
		}
	}
}

type selectionUC struct {
	fs     afero.Fs
	ledger repository.LedgerRepository
	pick   func(n int) int
	log    *zerolog.Logger
}

func NewSelectionUseCase(fs afero.Fs, ledger repository.LedgerRepository, logger *zerolog.Logger, opts ...SelectionOption) *selectionUC {
	selLog := logger.With().Str("component", "SelectionUC").Logger()
	uc := &selectionUC{
		fs:     fs,
		ledger: ledger,
		pick:   rand.Intn,
		log:    &selLog,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Select reads the ledger fresh on every call, then returns a random photo or video
// directly inside folder whose joined path is not recorded. Ledger entries are
// compared in cleaned form, so "./videos/a.jpg" matches "videos/a.jpg". Files of
// other types are skipped with a warning. It returns domain.ErrNoCandidate when
// nothing is left to send.
func (uc *selectionUC) Select(ctx context.Context, folder string) (string, error) {
	defer logging.TraceDuration(uc.log, "SelectionUC.Select")()
	log := logging.With(ctx, uc.log)

	sent, err := uc.ledger.Load(ctx)
	if err != nil {
		metrics.IncSelection("error")
		return "", fmt.Errorf("load ledger: %w", err)
	}
	metrics.SetLedgerSize(len(sent))

	recorded := make(map[string]struct{}, len(sent))
	for _, p := range sent {
		recorded[filepath.Clean(p)] = struct{}{}
	}

	entries, err := afero.ReadDir(uc.fs, folder)
	if err != nil {
		metrics.IncSelection("error")
		return "", fmt.Errorf("read folder %s: %w", folder, err)
	}

	candidates := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		p := filepath.Join(folder, e.Name())
		if _, ok := recorded[p]; ok {
			continue
		}
		if !model.KindFromPath(p).Supported() {
			log.Warn().Str("path", p).Msg("skipping unsupported file")
			continue
		}
		candidates = append(candidates, p)
	}

	if len(candidates) == 0 {
		metrics.IncSelection("exhausted")
		log.Error().Str("folder", folder).Msg("no new files found in folder")
		return "", domain.ErrNoCandidate
	}

	chosen := candidates[uc.pick(len(candidates))]
	metrics.IncSelection("selected")
	log.Debug().Str("folder", folder).Int("candidates", len(candidates)).Str("path", chosen).Msg("candidate selected")
	return chosen, nil
}
