// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-media-relay/internal/domain/model"
)

// OutboundMedia is a photo or video to post. Exactly one of Path or FileID is set:
// Path uploads a local file, FileID re-sends media already stored by Telegram.
type OutboundMedia struct {
	Kind    model.MediaKind
	Path    string
	FileID  string
	Caption string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendMenu sends text with a one-time reply keyboard, one option per row.
	SendMenu(ctx context.Context, chatID int64, text string, options []string) error
	SendMedia(ctx context.Context, chatID int64, media OutboundMedia) error
	DownloadFile(ctx context.Context, fileID, dest string) error
}
