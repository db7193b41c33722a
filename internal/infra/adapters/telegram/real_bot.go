package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"telegram-media-relay/internal/config"
	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/domain/ports/adapter"
	"telegram-media-relay/internal/infra/logging"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// UpdateHandler consumes converted user messages.
type UpdateHandler interface {
	Handle(ctx context.Context, in model.Inbound) error
}

// botAPI is the part of tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RealTelegramBotAdapter long-polls updates and sends messages through tgbotapi.
type RealTelegramBotAdapter struct {
	api  botAPI
	cfg  *config.BotConfig
	fs   afero.Fs
	http *http.Client
	log  *zerolog.Logger

	updateWorkers int
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	bot.Debug = cfg.Debug

	a := newAdapter(bot, cfg, afero.NewOsFs(), logger)
	a.log.Info().Str("bot", bot.Self.UserName).Msg("authorized on telegram")
	return a, nil
}

func newAdapter(api botAPI, cfg *config.BotConfig, fs afero.Fs, logger *zerolog.Logger) *RealTelegramBotAdapter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	tgLog := logger.With().Str("component", "TelegramAdapter").Logger()
	return &RealTelegramBotAdapter{
		api:           api,
		cfg:           cfg,
		fs:            fs,
		http:          &http.Client{Timeout: 2 * time.Minute},
		log:           &tgLog,
		updateWorkers: workers,
	}
}

// RegisterCommands publishes the command list shown in Telegram clients.
func (r *RealTelegramBotAdapter) RegisterCommands(ctx context.Context) error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Show the menu"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel the current step"},
	)
	if _, err := r.api.Request(cmds); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// StartPolling blocks until ctx is cancelled, feeding converted updates to h.
// With a single worker, updates are handled strictly in arrival order.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, h UpdateHandler) error {
	if h == nil {
		return errors.New("update handler is nil")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.cfg.PollTimeout
	if u.Timeout <= 0 {
		u.Timeout = 60
	}
	updates := r.api.GetUpdatesChan(u)
	defer r.api.StopReceivingUpdates()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, h, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	r.log.Info().Int("workers", r.updateWorkers).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			r.log.Info().Msg("polling stopped")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				cancel()
				continue
			}
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, h UpdateHandler, update tgbotapi.Update) error {
	in, ok := toInbound(update.Message)
	if !ok {
		return nil
	}
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithChatID(ctx, in.ChatID)
	logging.With(ctx, r.log).Debug().Int("update_id", update.UpdateID).Msg("update received")
	return h.Handle(ctx, in)
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := r.api.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendMenu(ctx context.Context, chatID int64, text string, options []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(opt)))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(rows...)
	kb.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, err := r.api.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendMedia(ctx context.Context, chatID int64, media adapter.OutboundMedia) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := mediaMessage(chatID, media)
	if err != nil {
		return err
	}
	_, err = r.api.Send(c)
	return err
}

func mediaMessage(chatID int64, media adapter.OutboundMedia) (tgbotapi.Chattable, error) {
	var file tgbotapi.RequestFileData
	switch {
	case media.Path != "":
		file = tgbotapi.FilePath(media.Path)
	case media.FileID != "":
		file = tgbotapi.FileID(media.FileID)
	default:
		return nil, fmt.Errorf("%w: media has neither path nor file id", domain.ErrInvalidArgument)
	}

	switch media.Kind {
	case model.MediaPhoto:
		p := tgbotapi.NewPhoto(chatID, file)
		p.Caption = media.Caption
		return p, nil
	case model.MediaVideo:
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption = media.Caption
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, media.Kind)
	}
}

// DownloadFile fetches a Telegram-hosted file and writes it to dest atomically.
func (r *RealTelegramBotAdapter) DownloadFile(ctx context.Context, fileID, dest string) error {
	url, err := r.api.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("resolve file %s: %w", fileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file %s: unexpected status %d", fileID, resp.StatusCode)
	}

	dir := filepath.Dir(dest)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	tmp, err := afero.TempFile(r.fs, dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = r.fs.Remove(tmpName)
		return err
	}
	if err := r.fs.Rename(tmpName, dest); err != nil {
		_ = r.fs.Remove(tmpName)
		return err
	}
	return nil
}
