package repository

import "context"

// LedgerRepository is the persisted, ordered record of media paths already broadcast.
type LedgerRepository interface {
	// Load returns every recorded path in send order. Missing storage yields an empty slice.
	Load(ctx context.Context) ([]string, error)
	// Append records path. A path that is already present yields domain.ErrAlreadyRecorded.
	Append(ctx context.Context, path string) error
	Contains(ctx context.Context, path string) (bool, error)
}
