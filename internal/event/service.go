package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/storage/mq"
)

// Service consumes domain events relayed from the outbox.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger,
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.mqConsumer.RegisterHandler(
		TopicSaleCompleted,
		func(ctx context.Context, topic string, payload []byte) error {
			var ev SaleCompletedEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return fmt.Errorf("unmarshal sale completed event: %w", err)
			}

			if err := s.handleSaleCompletedEvent(ctx, ev); err != nil {
				return fmt.Errorf("handle sale completed event: %w", err)
			}

			return nil
		},
	); err != nil {
		return nil, fmt.Errorf("register sale completed event handler: %w", err)
	}

	if err := s.mqConsumer.RegisterHandler(
		TopicProductLowStock,
		func(ctx context.Context, topic string, payload []byte) error {
			var ev ProductLowStockEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return fmt.Errorf("unmarshal product low stock event: %w", err)
			}

			if err := s.handleProductLowStockEvent(ctx, ev); err != nil {
				return fmt.Errorf("handle product low stock event: %w", err)
			}

			return nil
		},
	); err != nil {
		return nil, fmt.Errorf("register product low stock event handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	return func() {
		mqCleanup()
	}, nil
}
