package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/domain/ports/adapter"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/i18n"
	"telegram-media-relay/internal/infra/logging"
	"telegram-media-relay/internal/infra/metrics"
	"telegram-media-relay/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Conversation steps stored per chat.
const (
	StepIdle             = "idle"
	StepAwaitingMedia    = "awaiting_media"
	StepAwaitingFeedback = "awaiting_feedback"
)

var _ RelayUseCase = (*relayUC)(nil)

// RelayUseCase drives the user-facing menu and forwards submissions to moderators.
type RelayUseCase interface {
	Handle(ctx context.Context, in model.Inbound) error
}

// RelayOptions holds the optional parts of the relay.
type RelayOptions struct {
	// ArchiveDir enables downloading every relayed photo/video when set together with Archive.
	ArchiveDir string
	Archive    *worker.Pool
	Dev        bool
}

type relayUC struct {
	states      repository.StateRepository
	bot         adapter.TelegramBotAdapter
	tr          *i18n.Translator
	moderatorID int64
	opts        RelayOptions
	log         *zerolog.Logger
}

func NewRelayUseCase(
	states repository.StateRepository,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	moderatorChatID int64,
	opts RelayOptions,
	logger *zerolog.Logger,
) *relayUC {
	relayLog := logger.With().Str("component", "RelayUC").Logger()
	return &relayUC{
		states:      states,
		bot:         bot,
		tr:          tr,
		moderatorID: moderatorChatID,
		opts:        opts,
		log:         &relayLog,
	}
}

func (uc *relayUC) Handle(ctx context.Context, in model.Inbound) error {
	defer logging.TraceDuration(uc.log, "RelayUC.Handle")()
	ctx = logging.WithChatID(ctx, in.ChatID)

	switch {
	case in.IsCommand():
		return uc.handleCommand(ctx, in)
	case in.HasMedia():
		return uc.handleMedia(ctx, in)
	case strings.TrimSpace(in.Text) != "":
		return uc.handleText(ctx, in)
	default:
		return nil
	}
}

func (uc *relayUC) handleCommand(ctx context.Context, in model.Inbound) error {
	switch in.Command {
	case "start":
		uc.reset(ctx, in.ChatID)
		return uc.bot.SendMenu(ctx, in.ChatID, uc.tr.T("welcome"), uc.menu())
	case "cancel":
		uc.reset(ctx, in.ChatID)
		return uc.reply(ctx, in.ChatID, "cancelled")
	default:
		return uc.reply(ctx, in.ChatID, "invalid_option")
	}
}

func (uc *relayUC) menu() []string {
	return []string{uc.tr.T("menu_send_media"), uc.tr.T("menu_feedback")}
}

func (uc *relayUC) handleText(ctx context.Context, in model.Inbound) error {
	text := strings.TrimSpace(in.Text)

	switch text {
	case uc.tr.T("menu_send_media"):
		if err := uc.setStep(ctx, in.ChatID, StepAwaitingMedia); err != nil {
			return uc.fail(ctx, in.ChatID, err)
		}
		return uc.reply(ctx, in.ChatID, "prompt_media")
	case uc.tr.T("menu_feedback"):
		if err := uc.setStep(ctx, in.ChatID, StepAwaitingFeedback); err != nil {
			return uc.fail(ctx, in.ChatID, err)
		}
		return uc.reply(ctx, in.ChatID, "prompt_feedback")
	}

	step, err := uc.currentStep(ctx, in.ChatID)
	if err != nil {
		return uc.fail(ctx, in.ChatID, err)
	}
	if step != StepAwaitingFeedback {
		return uc.reply(ctx, in.ChatID, "invalid_option")
	}
	return uc.relayFeedback(ctx, in, in.Text)
}

func (uc *relayUC) relayFeedback(ctx context.Context, in model.Inbound, text string) error {
	log := logging.With(ctx, uc.log)

	if err := uc.bot.SendMessage(ctx, uc.moderatorID, uc.tr.T("feedback_forward", text)); err != nil {
		metrics.IncRelay("feedback", "failed")
		return uc.fail(ctx, in.ChatID, fmt.Errorf("relay feedback: %w", err))
	}
	metrics.IncRelay("feedback", "sent")
	log.Info().
		Str("username", in.Username).
		Str("feedback", logging.Redact(text, uc.opts.Dev)).
		Msg("feedback relayed")

	uc.reset(ctx, in.ChatID)
	return uc.reply(ctx, in.ChatID, "feedback_sent")
}

func (uc *relayUC) handleMedia(ctx context.Context, in model.Inbound) error {
	log := logging.With(ctx, uc.log)

	if !in.Media.Kind.Supported() {
		metrics.IncRelay(in.Media.Original, "unsupported")
		log.Debug().Str("type", in.Media.Original).Msg("unsupported upload rejected")
		return uc.reply(ctx, in.ChatID, "unsupported_media")
	}

	sub := model.NewSubmission(in.ChatID, *in.Media)
	err := uc.bot.SendMedia(ctx, uc.moderatorID, adapter.OutboundMedia{
		Kind:    sub.Kind,
		FileID:  sub.FileID,
		Caption: uc.tr.T("media_caption"),
	})
	if err != nil {
		metrics.IncRelay(string(sub.Kind), "failed")
		return uc.fail(ctx, in.ChatID, fmt.Errorf("relay %s %s: %w", sub.Kind, sub.ID, err))
	}
	metrics.IncRelay(string(sub.Kind), "sent")
	log.Info().
		Str("submission_id", sub.ID).
		Str("kind", string(sub.Kind)).
		Str("username", in.Username).
		Msg("submission relayed")

	uc.archive(ctx, sub)

	uc.reset(ctx, in.ChatID)
	return uc.reply(ctx, in.ChatID, "media_sent")
}

// archive queues a download of the submission; a full queue drops it.
func (uc *relayUC) archive(ctx context.Context, sub *model.Submission) {
	if uc.opts.Archive == nil || uc.opts.ArchiveDir == "" {
		return
	}
	log := logging.With(ctx, uc.log)
	dest := filepath.Join(uc.opts.ArchiveDir, sub.ArchiveName())

	task := func(taskCtx context.Context) error {
		if err := uc.bot.DownloadFile(taskCtx, sub.FileID, dest); err != nil {
			metrics.IncArchiveDownload("failed")
			return fmt.Errorf("archive %s: %w", sub.ID, err)
		}
		metrics.IncArchiveDownload("ok")
		log.Debug().Str("submission_id", sub.ID).Str("dest", dest).Msg("submission archived")
		return nil
	}
	if err := uc.opts.Archive.Submit(task); err != nil {
		metrics.IncArchiveDownload("dropped")
		log.Warn().Err(err).Str("submission_id", sub.ID).Msg("archive download dropped")
	}
}

func (uc *relayUC) currentStep(ctx context.Context, chatID int64) (string, error) {
	st, err := uc.states.GetState(ctx, chatID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}
	return st.Step, nil
}

func (uc *relayUC) setStep(ctx context.Context, chatID int64, step string) error {
	if err := uc.states.SetState(ctx, chatID, &repository.ConversationState{Step: step}); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// reset returns the chat to idle once a relay went through, even if the
// acknowledgement to the user fails afterwards.
func (uc *relayUC) reset(ctx context.Context, chatID int64) {
	if err := uc.states.ClearState(ctx, chatID); err != nil {
		logging.With(ctx, uc.log).Warn().Err(err).Msg("failed to reset state")
	}
}

func (uc *relayUC) reply(ctx context.Context, chatID int64, key string, args ...interface{}) error {
	if err := uc.bot.SendMessage(ctx, chatID, uc.tr.T(key, args...)); err != nil {
		return fmt.Errorf("reply %s: %w", key, err)
	}
	return nil
}

// fail logs err, tells the user to retry and leaves the stored state as it was.
func (uc *relayUC) fail(ctx context.Context, chatID int64, err error) error {
	logging.With(ctx, uc.log).Error().Err(err).Msg("relay failed")
	if rerr := uc.reply(ctx, chatID, "relay_failed"); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}
