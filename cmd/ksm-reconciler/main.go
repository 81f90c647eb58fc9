package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/config"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/log"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/reconcile"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/relay"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/repository"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/db"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/mq"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/cmdutil"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/pkg/validator"
)

// Standalone worker running the outbox relay and the reconcile repair
// passes separately from the API server, for example as a sidecar or a
// scheduled job.
func main() {
	if err := run(); err != nil {
		fmt.Printf("error running reconciler application: %v\n", err)
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
		Relay      config.Relay
		Reconciler config.Reconciler
		Kafka      config.Kafka
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

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

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	saleRepository := repository.NewSaleRepository(dbClient)
	productRepository := repository.NewProductRepository(dbClient)
	customerRepository := repository.NewCustomerRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	saleService := service.NewSaleService(dbClient, saleRepository, productRepository, customerRepository, outboxMsgRepository, v)

	relaySvc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
	relayCleanup := relaySvc.Run(ctx)
	logger.InfoContext(ctx, "relay service started")

	reconcileSvc := reconcile.NewService(cfg.Reconciler, logger, saleService)
	reconcileCleanup := reconcileSvc.Run(ctx)
	logger.InfoContext(ctx, "reconcile service started")

	<-cmdutil.InterruptChan()

	logger.InfoContext(ctx, "worker is shutting down")
	reconcileCleanup()
	relayCleanup()

	logger.InfoContext(ctx, "worker is stopped")

	return nil
}
