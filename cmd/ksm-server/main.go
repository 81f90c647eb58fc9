package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/auth"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/config"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/event"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/http"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/log"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/reconcile"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/relay"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/mq"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/telemetry"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/cmdutil"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running server application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log        config.Log
		Postgres   config.Postgres
		HTTP       config.HTTP
		Auth       config.Auth
		Relay      config.Relay
		Reconciler config.Reconciler
		Kafka      config.Kafka
		Otel       config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth)

	userRepository := repository.NewUserRepository(dbClient)
	productRepository := repository.NewProductRepository(dbClient)
	customerRepository := repository.NewCustomerRepository(dbClient)
	saleRepository := repository.NewSaleRepository(dbClient)
	calendarEventRepository := repository.NewCalendarEventRepository(dbClient)
	reportRepository := repository.NewReportRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	userService := service.NewUserService(userRepository, tokens, v)
	productService := service.NewProductService(productRepository, v)
	customerService := service.NewCustomerService(customerRepository, v)
	saleService := service.NewSaleService(dbClient, saleRepository, productRepository, customerRepository, outboxMsgRepository, v)
	calendarService := service.NewCalendarService(calendarEventRepository, v)
	reportService := service.NewReportService(productRepository, saleRepository, reportRepository)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, tokens,
			userService, productService, customerService, saleService, calendarService, reportService)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Go(func() {
		svc := reconcile.NewService(cfg.Reconciler, logger, saleService)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "reconcile service started")

		<-interruptChan

		logger.InfoContext(ctx, "reconcile service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "reconcile service is stopped")
	})

	wg.Wait()

	return nil
}
