// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"telegram-media-relay/internal/config"
	"telegram-media-relay/internal/domain/ports/adapter"
	"telegram-media-relay/internal/domain/ports/repository"
	tele "telegram-media-relay/internal/infra/adapters/telegram"
	"telegram-media-relay/internal/infra/db/jsonfile"
	pg "telegram-media-relay/internal/infra/db/postgres"
	"telegram-media-relay/internal/infra/db/sqlite"
	"telegram-media-relay/internal/infra/i18n"
	"telegram-media-relay/internal/infra/logging"
	"telegram-media-relay/internal/infra/memory"
	"telegram-media-relay/internal/infra/metrics"
	red "telegram-media-relay/internal/infra/redis"
	"telegram-media-relay/internal/infra/sched"
	"telegram-media-relay/internal/infra/scheduler"
	"telegram-media-relay/internal/infra/web"
	"telegram-media-relay/internal/infra/worker"
	"telegram-media-relay/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted text)")
	dryRun := flag.Bool("dry-run", false, "log outbound Telegram calls instead of sending them")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode, config.WithDryRun(*dryRun))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("relay stopped with error")
	}
	logger.Info().Msg("shutdown complete")
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Ledger ----
	ledger, closeLedger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	// ---- Conversation state ----
	var (
		states  repository.StateRepository
		sweeper *sched.SessionSweeper
		locker  scheduler.Locker
	)
	switch cfg.State.Driver {
	case "redis":
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		states = red.NewStateRepo(rc, cfg.State.TTL)
		locker = red.NewLocker(rc)
		logger.Info().Msg("conversation state stored in redis")
	default:
		mem := memory.NewStateRepo(cfg.State.TTL)
		states = mem
		sweeper = sched.NewSessionSweeper(cfg.State.SweepInterval, mem, logger)
		logger.Info().Msg("conversation state kept in memory")
	}

	// ---- Telegram ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	var (
		bot     adapter.TelegramBotAdapter
		realBot *tele.RealTelegramBotAdapter
	)
	if cfg.Bot.DryRun {
		bot = tele.NewNoopBotAdapter(logger)
		logger.Warn().Msg("dry-run mode: nothing is sent to telegram and no updates are polled")
	} else {
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		if err := realBot.RegisterCommands(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not register bot commands")
		}
		bot = realBot
	}

	// ---- Use cases ----
	relayOpts := usecase.RelayOptions{Dev: cfg.Runtime.Dev}
	var archive *worker.Pool
	if cfg.Relay.ArchiveDir != "" {
		if err := os.MkdirAll(cfg.Relay.ArchiveDir, 0o755); err != nil {
			return fmt.Errorf("archive dir: %w", err)
		}
		archive = worker.NewPool(cfg.Relay.ArchiveWorkers, logger)
		relayOpts.ArchiveDir = cfg.Relay.ArchiveDir
		relayOpts.Archive = archive
	}
	selector := usecase.NewSelectionUseCase(afero.NewOsFs(), ledger, logger)
	broadcast := usecase.NewBroadcastUseCase(selector, ledger, bot, cfg.Bot.BroadcastChatID, logger)
	relay := usecase.NewRelayUseCase(states, bot, tr, cfg.Bot.ModeratorChatID, relayOpts, logger)

	// ---- Scheduler ----
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sc, err := scheduler.NewScheduler(cfg.Scheduler.Entries, broadcast, scheduler.Options{
		PollInterval: cfg.Scheduler.PollInterval,
		JobTimeout:   cfg.Scheduler.JobTimeout,
		Location:     loc,
		Locker:       locker,
	}, logger)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	// ---- Run ----
	g, gctx := errgroup.WithContext(ctx)

	if err := sc.Start(gctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sc.Stop()
	for _, st := range sc.Entries() {
		logger.Info().Str("schedule", st.Name).Str("folder", st.Folder).Time("next_run", st.NextRun).Msg("schedule registered")
	}

	if archive != nil {
		archive.Start(gctx)
		defer archive.Stop()
	}
	if sweeper != nil {
		g.Go(func() error { return ignoreCanceled(sweeper.Run(gctx)) })
	}
	if realBot != nil {
		g.Go(func() error { return ignoreCanceled(realBot.StartPolling(gctx, relay)) })
	}
	if cfg.Admin.Port != 0 {
		srv := web.NewServer(ledger, sc, web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL), logger)
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Admin.Port) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		return nil
	})

	return g.Wait()
}

// openLedger picks the sent-files ledger backend and returns its close function.
func openLedger(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.LedgerRepository, func(), error) {
	switch cfg.Ledger.Driver {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.EnsureLedgerSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		logger.Info().Msg("ledger stored in postgres")
		return pg.NewLedgerRepo(pool), pool.Close, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info().Str("path", cfg.Ledger.Path).Msg("ledger stored in sqlite")
		return sqlite.NewLedgerRepo(db), closer(db, logger), nil
	default:
		repo, err := jsonfile.NewLedgerRepo(afero.NewOsFs(), cfg.Ledger.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("json ledger: %w", err)
		}
		logger.Info().Str("path", cfg.Ledger.Path).Msg("ledger stored in json file")
		return repo, func() {}, nil
	}
}

func closer(c io.Closer, logger *zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("close failed")
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
