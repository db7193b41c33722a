package repository

import (
	"context"
	"time"
)

// ConversationState holds a chat's progress in the menu flow.
type ConversationState struct {
	Step      string    `json:"step"` // e.g. "awaiting_media", "awaiting_feedback"
	UpdatedAt time.Time `json:"updated_at"`
}

// StateRepository is the port for per-chat conversational state.
// GetState returns domain.ErrStateNotFound when nothing (or only an expired entry) is stored.
type StateRepository interface {
	SetState(ctx context.Context, chatID int64, state *ConversationState) error
	GetState(ctx context.Context, chatID int64) (*ConversationState, error)
	ClearState(ctx context.Context, chatID int64) error
}
