//go:build integration

package postgres

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"telegram-media-relay/internal/domain"
)

func TestLedgerRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewLedgerRepo(testPool)

	t.Run("should start empty", func(t *testing.T) {
		cleanup(t)
		paths, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(paths) != 0 {
			t.Fatalf("expected empty ledger, got %v", paths)
		}
	})

	t.Run("should keep send order and reject duplicates", func(t *testing.T) {
		cleanup(t)
		for _, p := range []string{"v/b.mp4", "i/a.jpg"} {
			if err := repo.Append(ctx, p); err != nil {
				t.Fatalf("Append(%s) failed: %v", p, err)
			}
		}
		if err := repo.Append(ctx, "v/b.mp4"); !errors.Is(err, domain.ErrAlreadyRecorded) {
			t.Fatalf("expected ErrAlreadyRecorded, got %v", err)
		}

		paths, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if want := []string{"v/b.mp4", "i/a.jpg"}; !reflect.DeepEqual(paths, want) {
			t.Fatalf("wanted %v, got %v", want, paths)
		}

		ok, err := repo.Contains(ctx, "i/a.jpg")
		if err != nil || !ok {
			t.Fatalf("expected Contains to report true, got %v (%v)", ok, err)
		}
	})
}
