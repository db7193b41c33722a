package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/metrics"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

const uniqueViolation = "23505"

type ledgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) repository.LedgerRepository {
	return &ledgerRepo{pool: pool}
}

func (r *ledgerRepo) Load(ctx context.Context) ([]string, error) {
	const q = `SELECT path FROM sent_files ORDER BY id`
	rows, err := r.pool.Query(ctx, q)
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

	stat := r.pool.Stat()
	metrics.SetDBPoolStats(stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns())
	return paths, nil
}

func (r *ledgerRepo) Append(ctx context.Context, path string) error {
	if path == "" {
		return domain.ErrInvalidArgument
	}
	const q = `INSERT INTO sent_files (path, sent_at) VALUES ($1, $2)`

	// The UNIQUE constraint on path is the existence check.
	if _, err := r.pool.Exec(ctx, q, path, time.Now().UTC()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyRecorded
		}
		return fmt.Errorf("append ledger: %w", err)
	}
	return nil
}

func (r *ledgerRepo) Contains(ctx context.Context, path string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM sent_files WHERE path = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, path).Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
