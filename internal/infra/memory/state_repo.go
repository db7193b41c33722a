package memory

import (
	"context"
	"sync"
	"time"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/metrics"
)

var _ repository.StateRepository = (*StateRepo)(nil)

type entry struct {
	state     repository.ConversationState
	expiresAt time.Time
}

// StateRepo is a process-local StateRepository. Expired entries read as missing
// and are removed by Sweep.
type StateRepo struct {
	mu      sync.Mutex
	entries map[int64]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStateRepo(ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateRepo{entries: make(map[int64]entry), ttl: ttl, now: time.Now}
}

func (s *StateRepo) SetState(ctx context.Context, chatID int64, state *repository.ConversationState) error {
	if state == nil {
		return domain.ErrInvalidArgument
	}
	now := s.now()
	cp := *state
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = now.UTC()
	}

	s.mu.Lock()
	s.entries[chatID] = entry{state: cp, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *StateRepo) GetState(ctx context.Context, chatID int64) (*repository.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[chatID]
	if !ok {
		metrics.IncStateLookup("memory", "miss")
		return nil, domain.ErrStateNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, chatID)
		metrics.IncStateLookup("memory", "expired")
		return nil, domain.ErrStateNotFound
	}
	metrics.IncStateLookup("memory", "hit")
	st := e.state
	return &st, nil
}

func (s *StateRepo) ClearState(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.entries, chatID)
	s.mu.Unlock()
	return nil
}

// Sweep drops every expired entry and reports how many were removed.
func (s *StateRepo) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}
