package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/config"
	"github.com/iliyamo/property-booking/internal/database"
	"github.com/iliyamo/property-booking/internal/handler"
	"github.com/iliyamo/property-booking/internal/lock"
	"github.com/iliyamo/property-booking/internal/middleware"
	"github.com/iliyamo/property-booking/internal/queue"
	"github.com/iliyamo/property-booking/internal/realtime"
	"github.com/iliyamo/property-booking/internal/repository"
	"github.com/iliyamo/property-booking/internal/router"
	"github.com/iliyamo/property-booking/internal/service"
	"github.com/iliyamo/property-booking/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	bookingCfg := config.LoadBookingConfig()
	eventsCfg := config.LoadEventsConfig()
	storageCfg := config.LoadStorageConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis: unavailable, using in-process locks, limiter and cache")
	} else {
		defer rdb.Close()
	}

	var locker booking.Locker = lock.NewLocal()
	if bookingCfg.LockBackend == "redis" && rdb != nil {
		locker = lock.NewRedis(rdb, bookingCfg.LockPrefix, bookingCfg.LockTTL)
	}

	proofs, err := storage.New(storageCfg)
	if err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	props := repository.NewPropertyRepo(db)
	rooms := repository.NewRoomRepo(db, props, bookingCfg.RoomCacheTTL)
	bookings := repository.NewBookingRepo(db, rooms)

	hub := realtime.NewHub()
	sinks := []service.Sink{hub}
	var consumer interface {
		Start(ctx context.Context, h queue.Handler) error
	}
	switch eventsCfg.Broker {
	case "rabbitmq":
		pub := service.NewRabbitPublisher(eventsCfg.RabbitURL, eventsCfg.RabbitQueue)
		defer pub.Close()
		sinks = append(sinks, pub)
		consumer = queue.NewRabbitConsumer(eventsCfg.RabbitURL, eventsCfg.RabbitQueue)
	case "kafka":
		pub := service.NewKafkaPublisher(eventsCfg.KafkaBrokers, eventsCfg.KafkaTopic)
		defer pub.Close()
		sinks = append(sinks, pub)
		consumer = queue.NewKafkaConsumer(eventsCfg.KafkaBrokers, "booking-notifier", eventsCfg.KafkaTopic)
	}
	dispatcher := service.NewDispatcher(eventsCfg.Workers, eventsCfg.QueueSize, sinks...)
	dispatcher.Start()
	defer dispatcher.Close()

	svc := booking.NewService(bookings, locker, dispatcher, booking.Options{PaymentWindow: bookingCfg.PaymentWindow})
	sweeper := booking.NewSweeper(svc, bookingCfg.SweepInterval)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	bookingHandler := handler.NewBookingHandler(svc, proofs, storageCfg.Prefix, hub)
	router.RegisterRoutes(e, db, rdb)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(svc, rooms, props), bookingHandler,
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb))
	router.RegisterUser(e, bookingHandler, cfg.JWTSecret)
	router.RegisterTenant(e, handler.NewTenantHandler(svc, props, rooms), cfg.JWTSecret)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if res, err := sweeper.RunOnce(gctx); err != nil {
			log.Printf("sweeper: startup sweep: %v", err)
		} else if res.Expired+res.Completed > 0 {
			log.Printf("sweeper: startup sweep expired=%d completed=%d", res.Expired, res.Completed)
		}
		return sweeper.Start(gctx)
	})
	if consumer != nil {
		notify := queue.NewNotifyLog(eventsCfg.NotifyLog)
		g.Go(func() error { return consumer.Start(gctx, notify.Handle) })
	}
	return g.Wait()
}
