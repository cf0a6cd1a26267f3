package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/kovalyov-valentin/news-digest-bot/internal/bot"
	"github.com/kovalyov-valentin/news-digest-bot/internal/bot/middleware"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
	"github.com/kovalyov-valentin/news-digest-bot/internal/config"
	"github.com/kovalyov-valentin/news-digest-bot/internal/digest"
	"github.com/kovalyov-valentin/news-digest-bot/internal/fetcher"
	"github.com/kovalyov-valentin/news-digest-bot/internal/filter"
	"github.com/kovalyov-valentin/news-digest-bot/internal/imagegen"
	"github.com/kovalyov-valentin/news-digest-bot/internal/logger"
	"github.com/kovalyov-valentin/news-digest-bot/internal/media"
	"github.com/kovalyov-valentin/news-digest-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-digest-bot/internal/notifier"
	"github.com/kovalyov-valentin/news-digest-bot/internal/publisher"
	"github.com/kovalyov-valentin/news-digest-bot/internal/ratelimit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/retry"
	"github.com/kovalyov-valentin/news-digest-bot/internal/scheduler"
	"github.com/kovalyov-valentin/news-digest-bot/internal/storage"
	"github.com/kovalyov-valentin/news-digest-bot/internal/summary"
)

const startupText = "Bot started and ready to post news about major companies & markets\n" +
	"If you see this message — everything is working."

// Попытки подключения к базе и брокеру при старте
var connectRetry = retry.Config{MaxAttempts: 5, Delay: 2 * time.Second, Backoff: true}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// app - собранные зависимости бота
type app struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	quotas  []*ratelimit.Quota

	botAPI    *tgbotapi.BotAPI
	channel   *botkit.Channel
	events    eventPublisher
	digest    *digest.Service
	fetcher   *fetcher.Fetcher
	scheduler *scheduler.Scheduler
	bot       *botkit.Bot

	closers []io.Closer
}

func newApp(ctx context.Context, cfg config.Config, catalog config.Catalog, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	backend, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.openEvents(ctx); err != nil {
		return nil, err
	}

	// Создаем бота, используя токен из конфига
	a.botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	a.channel = botkit.NewChannel(a.botAPI, cfg.TelegramChannelID, cfg.MessagesPerMinute)

	textQuota := ratelimit.NewQuota("text generation", cfg.MaxTextGenerationsPerDay, clock.Real{}, log)
	imageQuota := ratelimit.NewQuota("image generation", cfg.MaxImageGenerationsPerDay, clock.Real{}, log)
	a.quotas = []*ratelimit.Quota{textQuota, imageQuota}

	completer, err := summary.New(ctx, summary.Options{
		Provider: cfg.TextProvider,
		APIKey:   cfg.TextAPIKey,
		Model:    cfg.TextModel,
		BaseURL:  cfg.TextBaseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create text generator: %w", err)
	}
	if c, isCloser := completer.(io.Closer); isCloser {
		a.closers = append(a.closers, c)
	}

	var articleTimeout time.Duration
	if cfg.LookupArticleImage {
		articleTimeout = cfg.ImageDownloadTimeout
	}

	resolver := media.NewResolver(
		media.NewDownloader(cfg.ImageDownloadTimeout),
		imagegen.NewCloudflare(
			cfg.CloudflareAccountID,
			cfg.CloudflareAPIToken,
			cfg.CloudflareModel,
			cfg.ImageGenerationTimeout,
			imageQuota,
			log,
		),
		articleTimeout,
		log,
	)

	var (
		sent      = storage.LoadSentStore(ctx, backend, log)
		statusRef = storage.LoadNotificationRef(ctx, backend, log)
		pinRef    = storage.LoadPinRef(ctx, backend, log)
		ledger    = storage.LoadSlotLedger(ctx, backend, log)
		buffer    = digest.NewBuffer()
	)

	a.digest = digest.NewService(
		buffer,
		digest.NewComposer(summary.WithQuota(completer, textQuota), cfg.TextGenerationTimeout, cfg.Location(), log),
		a.channel,
		pinRef,
		a.events,
		a.metrics,
		log,
	)

	a.fetcher = fetcher.NewFetcher(
		fetcher.SourcesFromModels(catalog.Feeds, cfg.FetchTimeout),
		filter.NewClassifier(catalog.Keywords, catalog.NegativeKeywords),
		sent,
		buffer,
		notifier.NewPoster(a.channel, resolver, a.events, a.metrics, log),
		notifier.NewRotator(a.channel, statusRef, log),
		a.metrics,
		fetcher.Config{
			EntriesPerFeed:  cfg.EntriesPerFeed,
			PostsPerCycle:   cfg.PostsPerCycle,
			CatchUpLimit:    cfg.CatchUpLimit,
			RecencyGrace:    cfg.RecencyGrace,
			PollIntervalMin: cfg.PollIntervalMin,
			PollIntervalMax: cfg.PollIntervalMax,
			PostDelayMin:    cfg.PostDelayMin,
			PostDelayMax:    cfg.PostDelayMax,
			CatchUpDelayMin: cfg.CatchUpDelayMin,
			CatchUpDelayMax: cfg.CatchUpDelayMax,
		},
		log,
	)

	slots, err := scheduleSlots(cfg)
	if err != nil {
		return nil, err
	}

	a.scheduler = scheduler.New(scheduler.Config{
		Slots:         slots,
		Location:      cfg.Location(),
		TriggerWindow: cfg.TriggerWindow,
		TickMin:       cfg.SchedulerTickMin,
		TickMax:       cfg.SchedulerTickMax,
	}, ledger, a.digest, log)

	// /summary ходит в модель, даем ему время на генерацию
	a.bot = botkit.New(a.botAPI, cfg.TextGenerationTimeout+time.Minute, log)
	a.bot.RegisterCmdView("start", bot.ViewCmdStart())
	a.bot.RegisterCmdView("summary", middleware.PrivateOnly(bot.SummaryPrivateOnlyText, bot.ViewCmdSummary(a.digest)))
	a.bot.RegisterCmdView("sources", middleware.PrivateOnly("The /sources command works only in private messages", bot.ViewCmdListSources(catalog.Feeds)))

	ok = true

	return a, nil
}

func (a *app) openBackend(ctx context.Context) (storage.Backend, error) {
	switch a.cfg.StateBackend {
	case "postgres":
		var db *sqlx.DB
		err := retry.WithRetry(ctx, connectRetry, func() error {
			var err error
			db, err = sqlx.ConnectContext(ctx, "postgres", a.cfg.DatabaseDSN)
			if err != nil {
				a.log.Warn("failed to connect to database", "error", err)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db)

		backend := storage.NewPostgresBackend(db)
		if err := backend.Migrate(ctx); err != nil {
			return nil, err
		}

		a.log.Info("using postgres state backend")
		return backend, nil
	default:
		backend, err := storage.NewFileBackend(a.cfg.StateDir)
		if err != nil {
			return nil, err
		}

		a.log.Info("using file state backend", "dir", a.cfg.StateDir)
		return backend, nil
	}
}

func (a *app) openEvents(ctx context.Context) error {
	if a.cfg.AMQPURL == "" {
		a.events = publisher.Nop{}
		return nil
	}

	return retry.WithRetry(ctx, connectRetry, func() error {
		rmq, err := publisher.NewRabbitMQ(publisher.Config{
			URL:      a.cfg.AMQPURL,
			Exchange: a.cfg.AMQPExchange,
		}, a.log)
		if err != nil {
			a.log.Warn("failed to connect to rabbitmq", "error", err)
			return err
		}

		a.events = rmq
		a.closers = append(a.closers, rmq)
		return nil
	})
}

// run: анонс в канал, стартовый прогон, затем фоновые воркеры и прием команд
func (a *app) run(ctx context.Context) error {
	if _, err := a.channel.SendText(ctx, startupText, markup.Plain, false); err != nil {
		a.log.Error("test message not sent", "error", err)
	} else {
		a.log.Info("test message sent", "channel_id", a.cfg.TelegramChannelID)
	}

	a.fetcher.CatchUp(ctx)

	if a.cfg.MonitoringAddr != "" {
		go a.serveMonitoring(ctx)
	}

	// Воркер fetcher
	go func(ctx context.Context) {
		if err := a.fetcher.Start(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				a.log.Error("failed to start fetcher", "error", err)
				a.metrics.SetError(time.Now(), err.Error())
				return
			}

			a.log.Info("fetcher stopped")
		}
	}(ctx)

	// Воркер расписания дайджестов
	go func(ctx context.Context) {
		if err := a.scheduler.Run(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				a.log.Error("failed to start scheduler", "error", err)
				a.metrics.SetError(time.Now(), err.Error())
				return
			}

			a.log.Info("scheduler stopped")
		}
	}(ctx)

	// Запуск бота
	if err := a.bot.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("run bot: %w", err)
		}

		a.log.Info("bot stopped")
	}

	return nil
}

func (a *app) serveMonitoring(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/", a.metrics.Handler())
	mux.HandleFunc("/quotas", func(w http.ResponseWriter, _ *http.Request) {
		stats := make(map[string]interface{}, len(a.quotas))
		for _, q := range a.quotas {
			stats[q.Name()] = q.Stats()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	})

	srv := &http.Server{
		Addr:              a.cfg.MonitoringAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info("monitoring server started", "addr", a.cfg.MonitoringAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error("monitoring server failed", "error", err)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func scheduleSlots(cfg config.Config) ([]scheduler.Slot, error) {
	times := []struct {
		slot string
		at   string
	}{
		{"morning", cfg.MorningAt},
		{"noon", cfg.NoonAt},
		{"evening", cfg.EveningAt},
	}

	slots := make([]scheduler.Slot, 0, len(times))
	for _, t := range times {
		hour, minute, err := config.ParseClock(t.at)
		if err != nil {
			return nil, fmt.Errorf("%s slot: %w", t.slot, err)
		}

		name, err := parseSlot(t.slot)
		if err != nil {
			return nil, err
		}

		slots = append(slots, scheduler.Slot{Name: name, Hour: hour, Minute: minute})
	}

	return slots, nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, catalog, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	//Graceful Shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, catalog, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("bot started", "channel_id", cfg.TelegramChannelID, "feeds", len(catalog.Feeds))

	return a.run(ctx)
}
