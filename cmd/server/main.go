package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jellehierck/Streeplijst3/pkg/api"
	"github.com/jellehierck/Streeplijst3/pkg/cache"
	"github.com/jellehierck/Streeplijst3/pkg/config"
	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/events"
	"github.com/jellehierck/Streeplijst3/pkg/limiter"
	"github.com/jellehierck/Streeplijst3/pkg/nfc"
	"github.com/jellehierck/Streeplijst3/pkg/server"
	"github.com/jellehierck/Streeplijst3/pkg/server/handler"
	"github.com/jellehierck/Streeplijst3/pkg/service"
	"github.com/jellehierck/Streeplijst3/pkg/session"
	"github.com/jellehierck/Streeplijst3/pkg/telemetry"
)

const (
	gracefulTimeout = time.Second * 15
	serviceName     = "streeplijst"
	channelPoolSize = 4
)

func main() {
	cfg := config.New()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(cfg.TracingEnabled, serviceName, os.Stderr)
	if err != nil {
		log.Fatalf("### Can't init tracing: %v", err)
	}

	client, err := api.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		log.Fatalf("### Can't init API client: %v", err)
	}

	folders, err := config.LoadFolders(cfg.FoldersFile)
	if err != nil {
		log.Fatalf("### Can't load folders: %v", err)
	}

	db, closeDB, err := database.New(cfg.PostgresAddr, cfg.PostgresDB, cfg.PostgresUser, cfg.PostgresPassword)
	if err != nil {
		log.Fatalf("### Can't init database: %v", err)
	}
	defer closeDB()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("### Can't migrate database: %v", err)
	}

	rdb, closeRedis, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisUser, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("### Can't init redis: %v", err)
	}
	defer closeRedis()

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		log.Fatalf("### Can't init sale events: %v", err)
	}
	defer closePublisher()

	attempts := database.NewSaleAttemptBatchingDatabase(&database.SaleAttemptDatabase{DB: db}, cfg.SaleAttemptsBatchSize, cfg.SaleAttemptsFlushInterval)
	cards := &database.NfcCardDatabase{DB: db}
	catalog, catalogCache, sale := composeServices(client, folders, attempts, rdb, publisher, cfg)

	sessions := session.NewManager(session.Deps{
		Members:         client,
		Catalog:         catalog,
		Sales:           sale,
		Cards:           cards,
		AutoLogoutAfter: cfg.AutoLogoutAfter,
	}, cfg.SessionIdleTimeout)

	// outlives ctx, in-flight checkouts still record sale attempts during shutdown
	bg := startBackground(attempts.Run, sessions.Run)

	srv, err := server.New(cfg.ListenAddr, server.Deps{
		Sessions:         sessions,
		Catalog:          catalog,
		CatalogCache:     catalogCache,
		Cards:            cards,
		Reader:           &nfc.Reader{Redis: rdb},
		RecentCardWithin: cfg.RecentCardWithin,
		Pinger:           client,
	})
	if err != nil {
		log.Fatalf("### Can't create server: %v", err)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("### Can't listen and serve: %v", err)
		}
	}()
	slog.Info(fmt.Sprintf("HTTP server listening at %s", srv.Addr))

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()

	shutdown(shutdownCtx, srv, bg)
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("can't shutdown tracing", slog.Any("error", err))
	}
}

type background struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// startBackground runs every fn until stop is called.
func startBackground(fns ...func(context.Context)) *background {
	ctx, cancel := context.WithCancel(context.Background())
	bg := &background{cancel: cancel}

	for _, fn := range fns {
		bg.wg.Add(1)
		go func() {
			defer bg.wg.Done()
			fn(ctx)
		}()
	}
	return bg
}

func (bg *background) stop() {
	bg.cancel()
	bg.wg.Wait()
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown drains the HTTP server first, then stops the background workers.
func shutdown(ctx context.Context, srv shutdowner, bg *background) {
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("can't shutdown HTTP server", slog.Any("error", err))
	}
	bg.stop()
}

func composeServices(
	client *api.Client,
	folders *config.Folders,
	attempts database.SaleAttemptRepository,
	rdb *redis.Client,
	publisher events.Publisher,
	cfg *config.Config,
) (catalog service.Catalog, catalogCache handler.Invalidator, sale service.Sale) {
	catalog = &service.CatalogGeneric{API: client, Overlay: folders}
	if cfg.CatalogTTL > 0 {
		caching := &service.CatalogCaching{Catalog: catalog, Redis: rdb, TTL: cfg.CatalogTTL}
		catalog, catalogCache = caching, caching
	}
	catalog = &service.CatalogLogging{Catalog: catalog}

	sale = &service.SaleGeneric{API: client, Attempts: attempts}
	if cfg.SalesPerHourLimit > 0 {
		sale = &service.SaleLimiting{Sale: sale, Limiter: &limiter.Limiter{Redis: rdb, Limit: cfg.SalesPerHourLimit}, FailOpen: cfg.LimiterFailOpen}
	}
	sale = &service.SaleNotifying{Sale: sale, Publisher: publisher}
	sale = &service.SaleLogging{Sale: sale}

	return
}

func newPublisher(cfg *config.Config) (events.Publisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		slog.Info("no rabbitmq url set, sale events are not published")
		return events.Nop{}, func() {}, nil
	}

	pool, err := events.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, channelPoolSize)
	if err != nil {
		return nil, nil, err
	}

	return events.NewAMQPPublisher(pool, cfg.RabbitMQQueue), pool.Close, nil
}

func parseLogLevel(lvl string) slog.Level {
	switch lvl {
	case slog.LevelDebug.String():
		return slog.LevelDebug
	case slog.LevelInfo.String():
		return slog.LevelInfo
	case slog.LevelWarn.String():
		return slog.LevelWarn
	case slog.LevelError.String():
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
