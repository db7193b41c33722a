package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo stores sent paths in an embedded sqlite table keyed by path.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Load(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path FROM sent_files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0, 64)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return paths, nil
}

func (r *LedgerRepo) Append(ctx context.Context, path string) error {
	if path == "" {
		return domain.ErrInvalidArgument
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sent_files (path, sent_at) VALUES (?, ?) ON CONFLICT(path) DO NOTHING`,
		path, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyRecorded
	}
	return nil
}

func (r *LedgerRepo) Contains(ctx context.Context, path string) (bool, error) {
	var exists bool
	row := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sent_files WHERE path = ?)`, path)
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
