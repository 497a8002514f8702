// main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"motoshop-backend/config"
	"motoshop-backend/models"
	"motoshop-backend/routes"
	"motoshop-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format, "motoshop-backend")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(cfg.DB, logger)
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return err
	}
	if err := services.SeedAdmin(ctx, db, cfg.Admin, logger); err != nil {
		return err
	}

	handlers := []services.EventHandler{services.NewAlertWriter(db)}
	if cfg.Twilio.Enabled() {
		handlers = append(handlers, services.NewSMSNotifier(db, services.NewTwilioSender(cfg.Twilio), cfg.Twilio, logger))
		logger.Info("twilio notifications enabled")
	}
	dispatcher := services.NewDispatcher(logger, handlers...)

	g, gctx := errgroup.WithContext(ctx)

	var publisher services.EventPublisher
	switch cfg.Notify.Transport {
	case config.TransportRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		publisher = services.NewRedisStreamPublisher(rdb, cfg.Redis.Stream)
		consumer := services.NewStreamConsumer(rdb, cfg.Redis.Stream, cfg.Redis.Group, cfg.Redis.Consumer, cfg.Notify.MaxAttempts, dispatcher, logger)
		g.Go(func() error { return consumer.Run(gctx) })
	default:
		publisher = services.NewOutboxPublisher(db)
		relay := services.NewOutboxRelay(db, dispatcher, cfg.Notify.MaxAttempts, cfg.Notify.BatchSize, logger)
		scheduler, err := services.StartOutboxRelay(relay, cfg.Notify.RelaySchedule, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	builder := services.NewLineItemBuilder(cfg.Pricing.StrictProducts, logger)
	jobCards := services.NewJobCardService(db, builder, publisher, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		DB:       db,
		JobCards: jobCards,
		Logger:   logger,
	})
	printRoutes(router, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	closeDB(db, logger)
	return err
}

func closeDB(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
}

func printRoutes(r *gin.Engine, logger *zap.Logger) {
	for _, route := range r.Routes() {
		logger.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
