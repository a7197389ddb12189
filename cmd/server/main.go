package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/festival-reservation/internal/cache"
	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/database"
	"github.com/iliyamo/festival-reservation/internal/handler"
	"github.com/iliyamo/festival-reservation/internal/logging"
	"github.com/iliyamo/festival-reservation/internal/middleware"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/router"
	"github.com/iliyamo/festival-reservation/internal/service"
	"github.com/iliyamo/festival-reservation/internal/validation"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New("festival", cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable: zone cache and rate limiting disabled")
	}

	deps := service.NewDeps(db)
	deps.Cache = cache.NewZoneCache(rdb, config.LoadCacheConfig())
	deps.Log = logger
	var events *queue.Background
	if cfg.PublishEvents {
		pub := queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue, logger)
		events = queue.NewBackground(pub, 10*time.Second)
		deps.Events = events
	}

	if cfg.ConsumeEvents {
		consumer := queue.NewBillingConsumer(cfg.AMQPURL, cfg.EventsQueue, "", logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("billing consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Validator = validation.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := log.JSON{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				logger.Errorj(fields)
				return nil
			}
			logger.Infoj(fields)
			return nil
		},
	}))

	router.RegisterRoutes(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, repository.NewUserRepo(db)),
		Zones:        handler.NewZoneHandler(service.NewZoneService(deps)),
		Reservations: handler.NewReservationHandler(service.NewReservationService(deps)),
		Invoices:     handler.NewInvoiceHandler(service.NewInvoiceService(deps)),
	}, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	if events != nil {
		if err := events.Close(shutdownCtx); err != nil {
			logger.Warnf("events still pending at shutdown: %v", err)
		}
	}
}
