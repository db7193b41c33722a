package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/afero"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo keeps the sent paths as a JSON array of strings in a single file.
// Every append rewrites the whole file through a temp file and a rename.
type LedgerRepo struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewLedgerRepo(fs afero.Fs, path string) (*LedgerRepo, error) {
	if fs == nil {
		return nil, fmt.Errorf("%w: filesystem is nil", domain.ErrInvalidArgument)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: ledger path is empty", domain.ErrInvalidArgument)
	}
	return &LedgerRepo{fs: fs, path: path}, nil
}

func (r *LedgerRepo) Load(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *LedgerRepo) Append(ctx context.Context, path string) error {
	if path == "" {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	paths, err := r.read()
	if err != nil {
		return err
	}
	if slices.Contains(paths, path) {
		return domain.ErrAlreadyRecorded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.write(append(paths, path))
}

func (r *LedgerRepo) Contains(ctx context.Context, path string) (bool, error) {
	paths, err := r.Load(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(paths, path), nil
}

func (r *LedgerRepo) read() ([]string, error) {
	b, err := afero.ReadFile(r.fs, r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", r.path, err)
	}
	var paths []string
	if err := json.Unmarshal(b, &paths); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", r.path, err)
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

func (r *LedgerRepo) write(paths []string) error {
	b, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	tmp, err := afero.TempFile(r.fs, dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = r.fs.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := r.fs.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
