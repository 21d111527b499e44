package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/activitybooking/api"
	"github.com/Domenick1991/activitybooking/config"
	"github.com/Domenick1991/activitybooking/internal/bootstrap"
	"github.com/Domenick1991/activitybooking/internal/cache"
	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/kafka"
	"github.com/Domenick1991/activitybooking/internal/logger"
	"github.com/Domenick1991/activitybooking/internal/notify"
	"github.com/Domenick1991/activitybooking/internal/service/admin"
	"github.com/Domenick1991/activitybooking/internal/service/booking"
	"github.com/Domenick1991/activitybooking/internal/service/cancellation"
	"github.com/Domenick1991/activitybooking/internal/service/capacity"
	"github.com/Domenick1991/activitybooking/internal/service/ledger"
	"github.com/Domenick1991/activitybooking/internal/service/sessions"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.App.Environment); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		zap.L().Fatal("open storage", zap.Error(err))
	}
	defer storage.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SessionsCacheTTL(), cfg.Booking.CallbackLockTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	notifier := notify.NewNotifier(producer, cfg.Kafka.NotificationsTopic)

	prices, err := cfg.Booking.PriceList()
	if err != nil {
		zap.L().Fatal("price list", zap.Error(err))
	}

	gw := bootstrap.NewGateway(cfg.Payment)
	capacityManager := capacity.NewManager()
	entitlements := ledger.NewLedger(cfg.Passes.Validity())

	sessionService := sessions.NewSessionService(storage.Store, capacityManager, redisCache)
	bookingService := booking.NewBookingService(
		storage.Store,
		capacityManager,
		entitlements,
		gw,
		notifier,
		booking.Settings{
			Prices:          prices,
			Currency:        cfg.Payment.Currency,
			PendingTTL:      cfg.Booking.PendingTTL(),
			CreditOptionTTL: cfg.Booking.CreditOptionTTL(),
			SweepBatchSize:  cfg.Worker.SweepBatchSize,
		},
		booking.WithCallbackLocker(redisCache),
	)
	engine := cancellation.NewEngine(
		storage.Store,
		capacityManager,
		entitlements,
		gw,
		notifier,
		cancellation.Settings{Cutoff: cfg.Booking.CancellationCutoff(), RetryBatchSize: cfg.Worker.SweepBatchSize},
	)
	adminService := admin.NewAdminService(
		storage.Store,
		entitlements,
		engine,
		bookingService,
		sessionService,
		notifier,
		domain.Remedy(cfg.Admin.PaidRemedy),
	)

	var jobs sync.WaitGroup
	if cfg.Storage.InProcess() {
		jobs.Add(1)
		go func() {
			defer jobs.Done()
			bootstrap.NewMaintenance(cfg.Worker, bookingService, engine).Run(ctx)
		}()
		zap.L().Info("background jobs running in-process")
	}
	defer jobs.Wait()

	gin.SetMode(cfg.HTTP.GinMode)
	router := api.NewRouter(cfg.HTTP, cfg.Auth, api.Services{
		Sessions:  sessionService,
		Bookings:  bookingService,
		Canceller: engine,
		Admin:     adminService,
		Health: []api.HealthCheck{
			{Name: "storage", Check: storage.Ping},
			{Name: "redis", Check: redisCache.Ping},
			{Name: "kafka", Check: producer.CheckConnection},
		},
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, router); err != nil {
		zap.L().Fatal("server error", zap.Error(err))
	}
}
