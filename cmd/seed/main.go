// File: cmd/seed/main.go
// Command seed copies a sent_files.json ledger into the configured sqlite or
// postgres ledger so an existing deployment keeps its history.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"telegram-media-relay/internal/config"
	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/ports/repository"
	"telegram-media-relay/internal/infra/db/jsonfile"
	pg "telegram-media-relay/internal/infra/db/postgres"
	"telegram-media-relay/internal/infra/db/sqlite"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	from := flag.String("from", "sent_files.json", "json ledger to import")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false, config.WithDryRun(true))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	src, err := jsonfile.NewLedgerRepo(afero.NewOsFs(), *from)
	if err != nil {
		log.Fatalf("open %s: %v", *from, err)
	}
	paths, err := src.Load(ctx)
	if err != nil {
		log.Fatalf("read %s: %v", *from, err)
	}

	var dst repository.LedgerRepository
	switch cfg.Ledger.Driver {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		if err := pg.EnsureLedgerSchema(ctx, pool); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		dst = pg.NewLedgerRepo(pool)
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		defer db.Close()
		dst = sqlite.NewLedgerRepo(db)
	default:
		log.Fatalf("ledger.driver is %q; nothing to import into", cfg.Ledger.Driver)
	}

	// Import in ledger order, cleaned the way the relay joins folder paths;
	// paths already present are left alone.
	added, skipped := 0, 0
	for _, raw := range paths {
		p := filepath.Clean(raw)
		present, err := dst.Contains(ctx, p)
		if err != nil {
			log.Fatalf("check %q: %v", p, err)
		}
		if present {
			skipped++
			continue
		}
		err = dst.Append(ctx, p)
		switch {
		case err == nil:
			added++
		case errors.Is(err, domain.ErrAlreadyRecorded):
			skipped++
		default:
			log.Fatalf("append %q: %v", p, err)
		}
	}
	fmt.Printf("imported %d paths into the %s ledger (%d already present)\n", added, cfg.Ledger.Driver, skipped)
}
