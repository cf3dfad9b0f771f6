package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"textile-backoffice/config"
	"textile-backoffice/internal/api"
	"textile-backoffice/internal/auth"
	"textile-backoffice/internal/broker"
	"textile-backoffice/internal/redisclient"
	"textile-backoffice/internal/service"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/util"
	"textile-backoffice/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting textile back-office", zap.String("env", cfg.Server.Env))

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewStore(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	checks := map[string]api.Pinger{"database": db}

	// Interfaces stay nil when a backend is not configured.
	var (
		events      service.EventPublisher
		idempotency service.IdempotencyStore
		sessions    service.SessionStore
		changes     api.ChangeStream
		changePub   worker.ChangePublisher
	)

	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		idempotency, sessions, changes, changePub = redisClient, redisClient, redisClient, redisClient
		checks["redis"] = redisClient
		logger.Info("Redis connected")
	} else {
		logger.Warn("Redis disabled: no idempotency keys, token revocation or change stream")
	}

	var notifications *worker.NotificationWorker
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup)
		notifications = worker.NewNotificationWorker(consumer, changePub, cfg.Business.LowStockThreshold)
		logger.Info("Kafka initialized", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	} else {
		logger.Warn("Kafka disabled: domain events are not published")
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	ledger := service.NewStockLedger(db)
	activity := service.NewActivityLogService(db, db, db, events)

	svc := api.Services{
		Users:     service.NewUserService(db, db, activity, tokens, sessions, cfg.Auth.BcryptCost, events),
		Catalog:   service.NewCatalogService(db, db, db, ledger, activity, events),
		Customers: service.NewCustomerService(db, db, db, db, activity, events),
		Orders:    service.NewOrderService(db, db, db, db, ledger, activity, idempotency, cfg.Business.IdempotencyTTL, events),
		Activity:  activity,
		Dashboard: service.NewDashboardService(db, db, db, cfg.Business.LowStockThreshold),
	}

	if err := svc.Users.EnsureDefaultAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("Failed to seed default admin", zap.Error(err))
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	api.NewHandler(svc, changes, checks).SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if notifications != nil {
		g.Go(func() error {
			if err := notifications.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("notification worker: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
		if notifications != nil {
			if err := notifications.Stop(); err != nil {
				logger.Error("Failed to stop notification worker", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server exited")
}
