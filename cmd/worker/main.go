package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/activitybooking/config"
	"github.com/Domenick1991/activitybooking/internal/bootstrap"
	"github.com/Domenick1991/activitybooking/internal/cache"
	"github.com/Domenick1991/activitybooking/internal/email"
	"github.com/Domenick1991/activitybooking/internal/kafka"
	"github.com/Domenick1991/activitybooking/internal/logger"
	"github.com/Domenick1991/activitybooking/internal/notify"
	"github.com/Domenick1991/activitybooking/internal/service/booking"
	"github.com/Domenick1991/activitybooking/internal/service/cancellation"
	"github.com/Domenick1991/activitybooking/internal/service/capacity"
	"github.com/Domenick1991/activitybooking/internal/service/ledger"
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

	if err := bootstrap.RequireSharedStorage(cfg.Storage); err != nil {
		zap.L().Fatal("worker storage", zap.Error(err))
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		zap.L().Fatal("open storage", zap.Error(err))
	}
	defer storage.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	notifier := notify.NewNotifier(producer, cfg.Kafka.NotificationsTopic)
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SessionsCacheTTL(), cfg.Booking.CallbackLockTTL())
	defer redisCache.Close()

	prices, err := cfg.Booking.PriceList()
	if err != nil {
		zap.L().Fatal("price list", zap.Error(err))
	}

	gw := bootstrap.NewGateway(cfg.Payment)
	capacityManager := capacity.NewManager()
	entitlements := ledger.NewLedger(cfg.Passes.Validity())
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()
	emailSender := email.NewSender()

	maintenance := bootstrap.NewMaintenance(cfg.Worker, bookingService, engine)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := consumer.Consume(ctx, kafka.EventHandler(emailSender.Send)); err != nil && !kafka.IsShutdown(err) {
			zap.L().Error("notification consumer stopped", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		maintenance.Run(ctx)
	}()

	zap.L().Info("worker started")
	<-ctx.Done()
	zap.L().Info("worker shutting down")
	wg.Wait()
}
