//go:build !integration

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"telegram-media-relay/internal/domain"
)

func newTestRepo(t *testing.T) (*LedgerRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewLedgerRepo(db), path
}

func TestLedgerRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("should load empty on a fresh database", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		paths, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(paths) != 0 {
			t.Fatalf("expected empty ledger, got %v", paths)
		}
	})

	t.Run("should grow by one per append and keep order", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		want := []string{}
		for _, p := range []string{"videos/z.mp4", "images/a.jpg", "images/m.png"} {
			if err := repo.Append(ctx, p); err != nil {
				t.Fatalf("Append(%s) failed: %v", p, err)
			}
			want = append(want, p)
			got, err := repo.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("wanted %v, got %v", want, got)
			}
		}
	})

	t.Run("should reject a duplicate without changing the ledger", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		if err := repo.Append(ctx, "a.jpg"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := repo.Append(ctx, "a.jpg"); !errors.Is(err, domain.ErrAlreadyRecorded) {
			t.Fatalf("expected ErrAlreadyRecorded, got %v", err)
		}
		got, _ := repo.Load(ctx)
		if len(got) != 1 {
			t.Fatalf("expected one record, got %v", got)
		}
	})

	t.Run("should report membership", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_ = repo.Append(ctx, "a.jpg")
		if ok, err := repo.Contains(ctx, "a.jpg"); err != nil || !ok {
			t.Errorf("expected a.jpg to be present, got %v (%v)", ok, err)
		}
		if ok, err := repo.Contains(ctx, "b.jpg"); err != nil || ok {
			t.Errorf("expected b.jpg to be absent, got %v (%v)", ok, err)
		}
	})

	t.Run("should survive reopening", func(t *testing.T) {
		repo, path := newTestRepo(t)
		_ = repo.Append(ctx, "keep.mp4")

		db, err := Open(ctx, path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer db.Close()
		got, err := NewLedgerRepo(db).Load(ctx)
		if err != nil || !reflect.DeepEqual(got, []string{"keep.mp4"}) {
			t.Fatalf("expected [keep.mp4] after reopen, got %v (%v)", got, err)
		}
	})

	t.Run("should reject an empty path", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		if err := repo.Append(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
