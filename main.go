package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vipmusic/guardbot/internal/bot"
	"github.com/vipmusic/guardbot/internal/config"
	"github.com/vipmusic/guardbot/internal/db/sqlite"
	"github.com/vipmusic/guardbot/internal/event"
	"github.com/vipmusic/guardbot/internal/handlers/admin"
	"github.com/vipmusic/guardbot/internal/handlers/flames"
	"github.com/vipmusic/guardbot/internal/handlers/moderation"
	"github.com/vipmusic/guardbot/internal/handlers/reactor"
	"github.com/vipmusic/guardbot/internal/infra"
	"github.com/vipmusic/guardbot/internal/infrastructure/telegram"
	"github.com/vipmusic/guardbot/internal/lifecycle"
	"github.com/vipmusic/guardbot/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Get()
	log.SetFormatter(&config.LogFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	if cfg.TelegramAPIToken == "" {
		log.Fatal("no telegram api token configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go infra.GoRecoverable(-1, "monitor_executable", func() {
		if _, changed := <-infra.MonitorExecutable(ctx, infra.DefaultCheckExecInterval); changed {
			log.Warn("executable file was modified, shutting down")
			stop()
		}
	})

	if err := run(ctx, cfg); err != nil {
		log.WithField("error", err.Error()).Error("bot stopped")
		os.Exit(1)
	}
	log.Info("bot stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	botAPI.Debug = log.Level(cfg.LogLevel) == log.TraceLevel

	workDir, err := infra.WorkDir(cfg.DotPath)
	if err != nil {
		return err
	}
	store, err := sqlite.NewSQLiteClient(ctx, workDir, cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithField("error", err.Error()).Warn("cant close db")
		}
	}()

	service := bot.NewService(botAPI, store, cfg.DefaultLanguage)
	language := service.GetLanguage(ctx, 0, event.User{})
	ops := telegram.NewOperations(service.GetBot(), cfg.Moderation.AdminCacheTTL)

	processor, err := newProcessor(cfg, service, ops, language)
	if err != nil {
		return err
	}

	runtime := lifecycle.NewRuntime(observability.NewServer(cfg.Metrics.Addr))
	if err := runtime.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithField("error", err.Error()).Warn("cant stop runtime")
		}
	}()

	log.WithFields(log.Fields{
		"bot":      botAPI.Self.UserName,
		"handlers": processor.Chain(),
	}).Info("bot started")

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.AllowedUpdates = []string{"message", "callback_query"}

	err = dispatch(ctx, processor, botAPI, updateConfig, cfg.Workers)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newProcessor(cfg config.Config, service bot.Service, ops *telegram.Operations, language string) (*bot.UpdateProcessor, error) {
	checks := make([]moderation.Check, 0, len(cfg.Moderation.Checks))
	for _, check := range cfg.Moderation.Checks {
		checks = append(checks, moderation.Check(check))
	}
	engine, err := moderation.NewEngine(service.GetDB(), ops,
		moderation.NewFloodTracker(cfg.Moderation.FloodLimit, cfg.Moderation.FloodWindow),
		moderation.Settings{
			Checks:      checks,
			URLPattern:  cfg.Moderation.URLPattern,
			AdPattern:   cfg.Moderation.AdPattern,
			FloodLimit:  cfg.Moderation.FloodLimit,
			FloodWindow: cfg.Moderation.FloodWindow,
			Language:    language,
		})
	if err != nil {
		return nil, err
	}

	reactions, err := reactor.NewReactor(service.GetDB(), ops, reactor.Settings{
		Mode:       reactor.Mode(cfg.Reactor.Mode),
		Emojis:     cfg.Reactor.Emojis,
		Triggers:   cfg.Reactor.Triggers,
		History:    cfg.Reactor.History,
		HistoryTTL: cfg.Reactor.HistoryTTL,
		Language:   language,
	})
	if err != nil {
		return nil, err
	}

	processor := bot.NewUpdateProcessor(cfg.EnabledHandlers)
	processor.Register("moderation", engine)
	processor.Register("admin", admin.NewAdmin(service.GetDB(), ops, engine, language))
	processor.Register("reactor", reactions)
	processor.Register("flames", flames.NewFlames(ops, language))
	return processor, nil
}

// dispatch processes every update in its own goroutine, at most workers at a time.
func dispatch(ctx context.Context, processor *bot.UpdateProcessor, botAPI *api.BotAPI, updateConfig api.UpdateConfig, workers int64) error {
	updates, errs := bot.GetUpdatesChans(ctx, botAPI, updateConfig)
	sem := semaphore.NewWeighted(workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case err, ok := <-errs:
				if !ok {
					return ctx.Err()
				}
				return err
			case update, ok := <-updates:
				if !ok {
					return ctx.Err()
				}
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				g.Go(func() error {
					defer sem.Release(1)
					if err := processor.Process(gctx, &update); err != nil {
						log.WithFields(log.Fields{
							"update_id": update.UpdateID,
							"error":     err.Error(),
						}).Error("cant process update")
					}
					return nil
				})
			}
		}
	})
	return g.Wait()
}
