package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/domain/ports/adapter"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/logging"
	"telegram-media-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase posts folder media to the broadcast chat and records what was sent.
type BroadcastUseCase interface {
	// Send posts the file at path and appends it to the ledger on success.
	// A path the ledger already holds is refused with domain.ErrAlreadyRecorded.
	Send(ctx context.Context, path string) error
	// RunScheduled selects an unsent file from folder and sends it.
	// An exhausted folder is not an error.
	RunScheduled(ctx context.Context, folder string) error
}

type broadcastUC struct {
	selector SelectionUseCase
	ledger   repository.LedgerRepository
	bot      adapter.TelegramBotAdapter
	chatID   int64
	log      *zerolog.Logger
}

func NewBroadcastUseCase(
	selector SelectionUseCase,
	ledger repository.LedgerRepository,
	bot adapter.TelegramBotAdapter,
	chatID int64,
	logger *zerolog.Logger,
) *broadcastUC {
	bcLog := logger.With().Str("component", "BroadcastUC").Logger()
	return &broadcastUC{
		selector: selector,
		ledger:   ledger,
		bot:      bot,
		chatID:   chatID,
		log:      &bcLog,
	}
}

func (uc *broadcastUC) RunScheduled(ctx context.Context, folder string) error {
	path, err := uc.selector.Select(ctx, folder)
	if errors.Is(err, domain.ErrNoCandidate) {
		return nil
	}
	if err != nil {
		return err
	}
	err = uc.Send(ctx, path)
	if errors.Is(err, domain.ErrAlreadyRecorded) {
		return nil
	}
	return err
}

func (uc *broadcastUC) Send(ctx context.Context, path string) error {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Send")()
	log := logging.With(ctx, uc.log)

	kind := model.KindFromPath(path)
	if !kind.Supported() {
		metrics.IncBroadcast(string(kind), "unsupported")
		log.Error().Str("path", path).Msg("unsupported file type")
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, path)
	}

	sent, err := uc.ledger.Contains(ctx, path)
	if err != nil {
		metrics.IncBroadcast(string(kind), "failed")
		log.Error().Err(err).Str("path", path).Msg("failed to check ledger")
		return fmt.Errorf("check %s: %w", path, err)
	}
	if sent {
		metrics.IncBroadcast(string(kind), "skipped")
		log.Warn().Str("path", path).Msg("media already sent; not posting again")
		return fmt.Errorf("%w: %s", domain.ErrAlreadyRecorded, path)
	}

	err = uc.bot.SendMedia(ctx, uc.chatID, adapter.OutboundMedia{Kind: kind, Path: path})
	if err != nil {
		metrics.IncBroadcast(string(kind), "failed")
		log.Error().Err(err).Str("path", path).Msg("failed to send media")
		return fmt.Errorf("send %s: %w", path, err)
	}
	metrics.IncBroadcast(string(kind), "sent")

	switch err := uc.ledger.Append(ctx, path); {
	case err == nil:
		metrics.IncLedgerAppend("recorded")
	case errors.Is(err, domain.ErrAlreadyRecorded):
		// a concurrent run got there first; the post went out regardless
		metrics.IncLedgerAppend("duplicate")
		log.Warn().Str("path", path).Msg("media was already recorded")
	default:
		metrics.IncLedgerAppend("error")
		log.Error().Err(err).Str("path", path).Msg("failed to record sent media")
		return fmt.Errorf("record %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg(string(kind) + " sent")
	return nil
}
