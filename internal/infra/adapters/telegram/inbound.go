package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/infra/metrics"
)

// toInbound converts a Telegram message into the transport-neutral form.
// It reports false for updates that carry no message or chat.
func toInbound(msg *tgbotapi.Message) (model.Inbound, bool) {
	if msg == nil || msg.Chat == nil {
		metrics.IncTelegramUpdate("other")
		return model.Inbound{}, false
	}

	in := model.Inbound{ChatID: msg.Chat.ID}
	if msg.From != nil {
		in.UserID = msg.From.ID
		in.Username = msg.From.UserName
	}

	if media := inboundMedia(msg); media != nil {
		in.Media = media
		metrics.IncTelegramUpdate("media")
		return in, true
	}

	in.Text = msg.Text
	switch {
	case msg.IsCommand():
		in.Command = msg.Command()
		metrics.IncTelegramUpdate("command")
	case msg.Text != "":
		metrics.IncTelegramUpdate("text")
	default:
		metrics.IncTelegramUpdate("other")
	}
	return in, true
}

func inboundMedia(msg *tgbotapi.Message) *model.InboundMedia {
	switch {
	case len(msg.Photo) > 0:
		best := largestPhoto(msg.Photo)
		return &model.InboundMedia{Kind: model.MediaPhoto, FileID: best.FileID, Original: "photo"}
	case msg.Video != nil:
		return &model.InboundMedia{Kind: model.MediaVideo, FileID: msg.Video.FileID, Original: "video"}
	// animations also carry a document, so check them first
	case msg.Animation != nil:
		return unsupported(msg.Animation.FileID, "animation")
	case msg.Document != nil:
		return unsupported(msg.Document.FileID, "document")
	case msg.Audio != nil:
		return unsupported(msg.Audio.FileID, "audio")
	case msg.Voice != nil:
		return unsupported(msg.Voice.FileID, "voice")
	case msg.VideoNote != nil:
		return unsupported(msg.VideoNote.FileID, "video_note")
	case msg.Sticker != nil:
		return unsupported(msg.Sticker.FileID, "sticker")
	default:
		return nil
	}
}

func unsupported(fileID, original string) *model.InboundMedia {
	return &model.InboundMedia{Kind: model.MediaUnsupported, FileID: fileID, Original: original}
}

// largestPhoto picks the size with the most pixels; ties go to the later entry.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height >= best.Width*best.Height {
			best = s
		}
	}
	return best
}
