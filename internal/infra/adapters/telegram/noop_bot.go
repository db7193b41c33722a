package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-media-relay/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for dry runs.
// It logs what would be sent instead of calling Telegram.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	noopLog := logger.With().Str("component", "NoopTelegram").Logger()
	return &NoopBotAdapter{log: &noopLog}
}

// SendMessage logs the message and simulates small delay.
func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[noop] message")
	return nil
}

func (b *NoopBotAdapter) SendMenu(ctx context.Context, chatID int64, text string, options []string) error {
	if err := wait(ctx); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Strs("options", options).Msg("[noop] menu")
	return nil
}

func (b *NoopBotAdapter) SendMedia(ctx context.Context, chatID int64, media adapter.OutboundMedia) error {
	if err := wait(ctx); err != nil {
		return err
	}
	if _, err := mediaMessage(chatID, media); err != nil {
		return err
	}
	b.log.Info().
		Int64("chat_id", chatID).
		Str("kind", string(media.Kind)).
		Str("path", media.Path).
		Str("file_id", media.FileID).
		Msg("[noop] media")
	return nil
}

func (b *NoopBotAdapter) DownloadFile(ctx context.Context, fileID, dest string) error {
	b.log.Info().Str("file_id", fileID).Str("dest", dest).Msg("[noop] download skipped")
	return nil
}

// Simulate slight processing time and respect ctx
func wait(ctx context.Context) error {
	select {
	case <-time.After(10 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
