//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/usecase"
)

func newMediaFs(t *testing.T, folder string, names ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, n := range names {
		if err := afero.WriteFile(fs, folder+"/"+n, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	return fs
}

func TestSelectionUseCase(t *testing.T) {
	ctx := context.Background()
	const folder = "/media/images"

	t.Run("should never return a recorded path", func(t *testing.T) {
		// Arrange
		fs := newMediaFs(t, folder, "a.jpg", "b.jpg", "c.png")
		ledger := NewMockLedgerRepo(folder+"/a.jpg", folder+"/c.png")
		uc := usecase.NewSelectionUseCase(fs, ledger, newTestLogger())

		// Act + Assert
		for i := 0; i < 50; i++ {
			got, err := uc.Select(ctx, folder)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if got != folder+"/b.jpg" {
				t.Fatalf("expected only b.jpg to be eligible, got %s", got)
			}
		}
	})

	t.Run("should pick the remaining candidates about equally (scenario A)", func(t *testing.T) {
		fs := newMediaFs(t, folder, "a.jpg", "b.jpg", "c.png")
		ledger := NewMockLedgerRepo(folder + "/c.png")
		uc := usecase.NewSelectionUseCase(fs, ledger, newTestLogger())

		counts := map[string]int{}
		const runs = 2000
		for i := 0; i < runs; i++ {
			got, err := uc.Select(ctx, folder)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			counts[got]++
		}

		if counts[folder+"/c.png"] != 0 {
			t.Fatalf("recorded file was selected %d times", counts[folder+"/c.png"])
		}
		for _, name := range []string{"a.jpg", "b.jpg"} {
			share := float64(counts[folder+"/"+name]) / runs
			if share < 0.4 || share > 0.6 {
				t.Errorf("expected %s near 50%%, got %.2f", name, share)
			}
		}
	})

	t.Run("should report no candidate when every file is recorded (scenario B)", func(t *testing.T) {
		logger, buf := newCapturingLogger()
		fs := newMediaFs(t, folder, "a.jpg")
		ledger := NewMockLedgerRepo(folder+"/a.jpg", "/elsewhere/z.mp4")
		uc := usecase.NewSelectionUseCase(fs, ledger, logger)

		_, err := uc.Select(ctx, folder)

		if !errors.Is(err, domain.ErrNoCandidate) {
			t.Fatalf("expected ErrNoCandidate, got %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "no new files found in folder") {
			t.Errorf("expected an error-level log line, got %s", out)
		}
	})

	t.Run("should report no candidate for an empty folder", func(t *testing.T) {
		fs := newMediaFs(t, folder)
		uc := usecase.NewSelectionUseCase(fs, NewMockLedgerRepo(), newTestLogger())
		if _, err := uc.Select(ctx, folder); !errors.Is(err, domain.ErrNoCandidate) {
			t.Fatalf("expected ErrNoCandidate, got %v", err)
		}
	})

	t.Run("should skip subdirectories and not recurse", func(t *testing.T) {
		fs := newMediaFs(t, folder, "a.jpg")
		_ = fs.MkdirAll(folder+"/nested", 0o755)
		_ = afero.WriteFile(fs, folder+"/nested/deep.jpg", []byte("x"), 0o644)
		ledger := NewMockLedgerRepo(folder + "/a.jpg")
		uc := usecase.NewSelectionUseCase(fs, ledger, newTestLogger())

		if got, err := uc.Select(ctx, folder); !errors.Is(err, domain.ErrNoCandidate) {
			t.Fatalf("expected ErrNoCandidate, got %q (%v)", got, err)
		}
	})

	t.Run("should skip files that cannot be posted", func(t *testing.T) {
		logger, buf := newCapturingLogger()
		fs := newMediaFs(t, folder, "a.jpg", ".DS_Store", "Thumbs.db", "notes.txt")
		uc := usecase.NewSelectionUseCase(fs, NewMockLedgerRepo(), logger)

		for i := 0; i < 20; i++ {
			got, err := uc.Select(ctx, folder)
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if got != folder+"/a.jpg" {
				t.Fatalf("expected only a.jpg to be eligible, got %s", got)
			}
		}
		if !strings.Contains(buf.String(), "skipping unsupported file") {
			t.Errorf("expected a warning for skipped files, got %s", buf.String())
		}
	})

	t.Run("should report no candidate for a folder of leftovers only", func(t *testing.T) {
		fs := newMediaFs(t, folder, ".DS_Store", "readme.txt")
		uc := usecase.NewSelectionUseCase(fs, NewMockLedgerRepo(), newTestLogger())
		if _, err := uc.Select(ctx, folder); !errors.Is(err, domain.ErrNoCandidate) {
			t.Fatalf("expected ErrNoCandidate, got %v", err)
		}
	})

	t.Run("should match uncleaned ledger entries", func(t *testing.T) {
		fs := newMediaFs(t, "videos", "a.mp4", "b.mp4")
		ledger := NewMockLedgerRepo("./videos/a.mp4", "videos//b.mp4")
		uc := usecase.NewSelectionUseCase(fs, ledger, newTestLogger())

		if got, err := uc.Select(ctx, "./videos"); !errors.Is(err, domain.ErrNoCandidate) {
			t.Fatalf("expected ErrNoCandidate, got %q (%v)", got, err)
		}
	})

	t.Run("should use the injected picker", func(t *testing.T) {
		fs := newMediaFs(t, folder, "a.jpg", "b.jpg", "c.png")
		var seen int
		pick := func(n int) int { seen = n; return n - 1 }
		uc := usecase.NewSelectionUseCase(fs, NewMockLedgerRepo(), newTestLogger(), usecase.WithPicker(pick))

		got, err := uc.Select(ctx, folder)

		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if seen != 3 {
			t.Errorf("expected picker to see 3 candidates, got %d", seen)
		}
		if got != folder+"/c.png" {
			t.Errorf("expected the last candidate, got %s", got)
		}
	})

	t.Run("should propagate a ledger load error", func(t *testing.T) {
		fs := newMediaFs(t, folder, "a.jpg")
		ledger := NewMockLedgerRepo()
		ledger.LoadErr = errors.New("decode ledger: bad json")
		uc := usecase.NewSelectionUseCase(fs, ledger, newTestLogger())

		_, err := uc.Select(ctx, folder)
		if err == nil || !errors.Is(err, ledger.LoadErr) {
			t.Fatalf("expected the ledger error, got %v", err)
		}
	})

	t.Run("should fail on a missing folder", func(t *testing.T) {
		uc := usecase.NewSelectionUseCase(afero.NewMemMapFs(), NewMockLedgerRepo(), newTestLogger())
		_, err := uc.Select(ctx, "/nope")
		if err == nil || errors.Is(err, domain.ErrNoCandidate) {
			t.Fatalf("expected a read error, got %v", err)
		}
	})
}
