package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"roombook/internal/api"
	"roombook/internal/bot"
	"roombook/internal/config"
	"roombook/internal/database"
	"roombook/internal/events"
	"roombook/internal/google"
	"roombook/internal/health"
	"roombook/internal/metrics"
	"roombook/internal/relay"
	"roombook/internal/service"
	"roombook/internal/store"
	"roombook/shared/audit"
	"roombook/shared/reminders"
)

func main() {
	flags := pflag.NewFlagSet("roombook", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("ROOMBOOK_CONFIG_PATH"), "path to config.yaml")
	envFile := flags.String("env-file", ".env", "optional dotenv file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("file", *envFile).Msg("failed to load env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		logger = logger.Level(level)
	}
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	metrics.Register()

	st := store.New(events.NewEventBus(logger))
	if cfg.Store.Seed {
		st.Seed(time.Now())
	}
	svc := service.New(st, logger)

	err = config.WatchRooms(ctx, cfg.Rooms.CatalogPath, cfg.RoomsWatchInterval(),
		func(rc *config.RoomsConfig) {
			if err := svc.SyncRooms(rc.Models()); err != nil {
				logger.Warn().Err(err).Msg("room catalog partially applied")
			}
		},
		func(err error) { logger.Error().Err(err).Msg("room catalog reload failed") },
	)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal().Err(err).Msg("failed to load room catalog")
	}

	monitor := health.NewMonitor(logger)

	var journal *database.Journal
	if cfg.Journal.Enabled {
		journal, err = database.NewJournal(cfg.Journal.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open journal")
		}
		defer journal.Close()
		st.Subscribe(journal.Listener())
		monitor.Register("journal", journal.PingContext)

		backups := database.NewBackupService(journal, database.BackupConfig{
			Enabled:       cfg.Backup.Enabled,
			Interval:      cfg.BackupInterval(),
			StoragePath:   cfg.Backup.Path,
			RetentionDays: cfg.Backup.RetentionDays,
		}, logger)
		goRun(func() { backups.Start(ctx) })
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		rel := relay.New(rdb, cfg.Redis.Channel, logger)
		st.Subscribe(rel.Listener())
		monitor.Register("redis", rel.Ping)
	}

	var adminBot *bot.Bot
	if cfg.Telegram.Enabled {
		if cfg.Telegram.BotToken == "" {
			logger.Fatal().Msg("set telegram.bot_token in config")
		}
		adminBot, err = bot.New(cfg.Telegram.BotToken, cfg.Telegram.Debug, svc, cfg.Telegram.Admins, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create bot error")
		}
		st.Subscribe(adminBot.Listener())
		goRun(func() { adminBot.Start(ctx) })
	}

	if cfg.Google.Enabled {
		mirror, err := google.NewSheetsService(ctx, google.Config{
			CredentialsFile: cfg.Google.CredentialsFile,
			SpreadsheetID:   cfg.Google.SpreadsheetID,
			SheetName:       cfg.Google.SheetName,
			GridSheetName:   cfg.Google.GridSheetName,
			GridDays:        cfg.Google.GridDays,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init google sheets")
		}
		st.Subscribe(mirror.Listener())
		goRun(func() { mirror.Run(ctx, cfg.SheetsSyncInterval(), st, time.Now) })
	}

	if cfg.Reminders.Enabled {
		reminderMetrics := reminders.NewMetrics(prometheus.DefaultRegisterer, "roombook")
		notifiers := []reminders.Notifier{svc}
		if adminBot != nil {
			notifiers = append(notifiers, adminBot)
		}

		senderCfg := reminders.DefaultReminderSenderConfig()
		if cfg.Reminders.RatePerSecond > 0 {
			senderCfg.RateLimiter.Rate = float64(cfg.Reminders.RatePerSecond)
		}
		sender := reminders.NewReminderSender(senderCfg, reminderMetrics, logger, notifiers...)

		remCfg := reminders.DefaultConfig()
		remCfg.Lead = cfg.ReminderLead()
		remCfg.CheckInterval = cfg.ReminderInterval()
		remSvc := reminders.NewService(remCfg, st, sender, time.Now, reminderMetrics, logger)
		goRun(func() { remSvc.Run(ctx) })

		if cfg.Reminders.DigestEnabled && adminBot != nil {
			digest, err := reminders.NewScheduler(reminders.SchedulerConfig{
				Timezone:    cfg.Reminders.DigestTimezone,
				DailyHour:   cfg.Reminders.DigestHour,
				DailyMinute: cfg.Reminders.DigestMinute,
			}, st, adminBot, time.Now, reminderMetrics, logger)
			if err != nil {
				logger.Fatal().Err(err).Msg("invalid digest schedule")
			}
			goRun(func() { digest.Start(ctx) })
		}
	}

	if cfg.Audit.Enabled && journal != nil {
		var notifier audit.Notifier
		if adminBot != nil {
			notifier = adminBot
		}
		auditSvc := audit.NewService(&audit.Config{
			RetentionDays: cfg.Audit.RetentionDays,
			ExportDir:     cfg.Audit.ExportDir,
			Name:          "roombook",
		}, journal, audit.NewExcelizeWriter, notifier, journal, logger)
		auditSvc.Start()
		defer auditSvc.Stop()
	}

	router := api.NewRouter(svc, api.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		Heartbeat:       cfg.Heartbeat(),
	}, logger)

	goRun(func() { serveHTTP(ctx, "api", cfg.Server.Address, router, logger) })
	goRun(func() { monitor.Run(ctx, 15*time.Second) })

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8081
	}
	goRun(func() {
		serveHTTP(ctx, "health", fmt.Sprintf(":%d", cfg.Monitoring.HealthCheckPort), monitor.Handler(), logger)
	})

	if cfg.Monitoring.GRPCHealthPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Monitoring.GRPCHealthPort))
		if err != nil {
			logger.Fatal().Err(err).Msg("grpc health listen error")
		}
		goRun(func() {
			if err := monitor.ServeGRPC(ctx, lis); err != nil {
				logger.Error().Err(err).Msg("grpc health server error")
			}
		})
	}

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		goRun(func() { serveHTTP(ctx, "metrics", fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort), mux, logger) })
	}

	logger.Info().
		Str("address", cfg.Server.Address).
		Strs("origins", cfg.Server.AllowedOrigins).
		Str("features", enabledFeatures(cfg)).
		Msg("roombook started")

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	wg.Wait()
}

func serveHTTP(ctx context.Context, name, addr string, handler http.Handler, logger zerolog.Logger) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}

func enabledFeatures(cfg *config.Config) string {
	var on []string
	for name, enabled := range map[string]bool{
		"journal":   cfg.Journal.Enabled,
		"backup":    cfg.Journal.Enabled && cfg.Backup.Enabled,
		"redis":     cfg.Redis.Enabled,
		"telegram":  cfg.Telegram.Enabled,
		"sheets":    cfg.Google.Enabled,
		"reminders": cfg.Reminders.Enabled,
		"audit":     cfg.Audit.Enabled,
	} {
		if enabled {
			on = append(on, name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	sort.Strings(on)
	return strings.Join(on, ",")
}
