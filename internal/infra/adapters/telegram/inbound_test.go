//go:build !integration

package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-media-relay/internal/domain/model"
)

func baseMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 7, UserName: "sam"},
	}
}

func TestToInbound(t *testing.T) {
	t.Run("should skip updates without a message", func(t *testing.T) {
		if _, ok := toInbound(nil); ok {
			t.Fatal("expected nil message to be skipped")
		}
		if _, ok := toInbound(&tgbotapi.Message{}); ok {
			t.Fatal("expected message without chat to be skipped")
		}
	})

	t.Run("should recognise commands", func(t *testing.T) {
		msg := baseMessage()
		msg.Text = "/start"
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}

		in, ok := toInbound(msg)

		if !ok || in.Command != "start" || !in.IsCommand() {
			t.Fatalf("expected start command, got %+v", in)
		}
		if in.ChatID != 42 || in.UserID != 7 || in.Username != "sam" {
			t.Errorf("unexpected identity fields: %+v", in)
		}
	})

	t.Run("should carry plain text", func(t *testing.T) {
		msg := baseMessage()
		msg.Text = "Feedback"
		in, _ := toInbound(msg)
		if in.IsCommand() || in.HasMedia() || in.Text != "Feedback" {
			t.Fatalf("unexpected inbound %+v", in)
		}
	})

	t.Run("should pick the largest photo size", func(t *testing.T) {
		msg := baseMessage()
		msg.Photo = []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 90},
			{FileID: "big", Width: 1280, Height: 960},
			{FileID: "medium", Width: 320, Height: 240},
		}
		msg.Caption = "look"

		in, _ := toInbound(msg)

		if !in.HasMedia() || in.Media.Kind != model.MediaPhoto || in.Media.FileID != "big" {
			t.Fatalf("expected the big photo, got %+v", in.Media)
		}
		if in.Text != "" {
			t.Errorf("captions must not be treated as text, got %q", in.Text)
		}
	})

	t.Run("should accept videos", func(t *testing.T) {
		msg := baseMessage()
		msg.Video = &tgbotapi.Video{FileID: "vid"}
		in, _ := toInbound(msg)
		if in.Media == nil || in.Media.Kind != model.MediaVideo || in.Media.FileID != "vid" {
			t.Fatalf("unexpected media %+v", in.Media)
		}
	})

	t.Run("should mark other uploads as unsupported", func(t *testing.T) {
		cases := map[string]func(m *tgbotapi.Message){
			"document": func(m *tgbotapi.Message) { m.Document = &tgbotapi.Document{FileID: "f"} },
			"audio":    func(m *tgbotapi.Message) { m.Audio = &tgbotapi.Audio{FileID: "f"} },
			"voice":    func(m *tgbotapi.Message) { m.Voice = &tgbotapi.Voice{FileID: "f"} },
			"sticker":  func(m *tgbotapi.Message) { m.Sticker = &tgbotapi.Sticker{FileID: "f"} },
			"animation": func(m *tgbotapi.Message) {
				m.Animation = &tgbotapi.Animation{FileID: "f"}
				m.Document = &tgbotapi.Document{FileID: "f"}
			},
			"video_note": func(m *tgbotapi.Message) { m.VideoNote = &tgbotapi.VideoNote{FileID: "f"} },
		}
		for want, set := range cases {
			msg := baseMessage()
			set(msg)
			in, ok := toInbound(msg)
			if !ok || in.Media == nil {
				t.Fatalf("%s: expected media, got %+v", want, in)
			}
			if in.Media.Kind != model.MediaUnsupported || in.Media.Original != want {
				t.Errorf("%s: unexpected media %+v", want, in.Media)
			}
		}
	})

	t.Run("should pass through messages with nothing to handle", func(t *testing.T) {
		in, ok := toInbound(baseMessage())
		if !ok || in.HasMedia() || in.Text != "" {
			t.Fatalf("expected an empty inbound, got %+v", in)
		}
	})
}
