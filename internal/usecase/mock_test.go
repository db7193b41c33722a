//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/adapter"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/i18n"
)

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

type SentMessage struct {
	ChatID  int64
	Text    string
	Options []string // set for menus
}

type SentMedia struct {
	ChatID int64
	Media  adapter.OutboundMedia
}

type Download struct {
	FileID string
	Dest   string
}

type MockTelegramBot struct {
	mu        sync.Mutex
	Messages  []SentMessage
	Media     []SentMedia
	Downloads []Download

	SendMessageFunc  func(ctx context.Context, chatID int64, text string) error
	SendMediaFunc    func(ctx context.Context, chatID int64, media adapter.OutboundMedia) error
	DownloadFileFunc func(ctx context.Context, fileID, dest string) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, chatID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendMenu(ctx context.Context, chatID int64, text string, options []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, SentMessage{ChatID: chatID, Text: text, Options: slices.Clone(options)})
	return nil
}

func (m *MockTelegramBot) SendMedia(ctx context.Context, chatID int64, media adapter.OutboundMedia) error {
	if m.SendMediaFunc != nil {
		if err := m.SendMediaFunc(ctx, chatID, media); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Media = append(m.Media, SentMedia{ChatID: chatID, Media: media})
	return nil
}

func (m *MockTelegramBot) DownloadFile(ctx context.Context, fileID, dest string) error {
	if m.DownloadFileFunc != nil {
		if err := m.DownloadFileFunc(ctx, fileID, dest); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Downloads = append(m.Downloads, Download{FileID: fileID, Dest: dest})
	return nil
}

func (m *MockTelegramBot) MessagesTo(chatID int64) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, msg := range m.Messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func (m *MockTelegramBot) LastMessageTo(chatID int64) (SentMessage, bool) {
	msgs := m.MessagesTo(chatID)
	if len(msgs) == 0 {
		return SentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

// =============================
// Repositories
// =============================

// ---- Mock LedgerRepository ----

type MockLedgerRepo struct {
	mu    sync.Mutex
	Paths []string

	LoadErr     error
	AppendErr   error
	ContainsErr error
}

var _ repository.LedgerRepository = (*MockLedgerRepo)(nil)

func NewMockLedgerRepo(paths ...string) *MockLedgerRepo {
	return &MockLedgerRepo{Paths: append([]string{}, paths...)}
}

func (m *MockLedgerRepo) Load(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return slices.Clone(m.Paths), nil
}

func (m *MockLedgerRepo) Append(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	if slices.Contains(m.Paths, path) {
		return domain.ErrAlreadyRecorded
	}
	m.Paths = append(m.Paths, path)
	return nil
}

func (m *MockLedgerRepo) Contains(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ContainsErr != nil {
		return false, m.ContainsErr
	}
	return slices.Contains(m.Paths, path), nil
}

// ---- Mock StateRepository ----

type MockStateRepo struct {
	mu     sync.Mutex
	states map[int64]repository.ConversationState

	GetErr error
	SetErr error
}

var _ repository.StateRepository = (*MockStateRepo)(nil)

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{states: make(map[int64]repository.ConversationState)}
}

func (m *MockStateRepo) SetState(ctx context.Context, chatID int64, state *repository.ConversationState) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = *state
	return nil
}

func (m *MockStateRepo) GetState(ctx context.Context, chatID int64) (*repository.ConversationState, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[chatID]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return &st, nil
}

func (m *MockStateRepo) ClearState(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, chatID)
	return nil
}

func (m *MockStateRepo) Step(chatID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[chatID]; ok {
		return st.Step
	}
	return ""
}

// ---- Mock SelectionUseCase ----

type MockSelector struct {
	SelectFunc func(ctx context.Context, folder string) (string, error)
}

func (m *MockSelector) Select(ctx context.Context, folder string) (string, error) {
	if m.SelectFunc != nil {
		return m.SelectFunc(ctx, folder)
	}
	return "", errors.New("not implemented")
}

// =============================
// Helpers
// =============================

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newCapturingLogger records every log line for assertions on messages and levels.
func newCapturingLogger() (*zerolog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	logger := zerolog.New(buf)
	return &logger, buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// --- Translator

func newTestTranslator() *i18n.Translator {
	// Use the real catalog so tests assert on the exact user-facing texts.
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return translator
}


func stateAt(step string) *repository.ConversationState {
	return &repository.ConversationState{Step: step}
}
