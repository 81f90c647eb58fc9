package event

import (
	"context"
	"log/slog"
)

const TopicSaleCompleted = "sale.completed"

type SaleCompletedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type SaleCompletedEvent struct {
	SaleID      string              `json:"sale_id"`
	CustomerID  *string             `json:"customer_id,omitempty"`
	FinalAmount string              `json:"final_amount"`
	Items       []SaleCompletedItem `json:"items"`
}

func (s *Service) handleSaleCompletedEvent(ctx context.Context, ev SaleCompletedEvent) error {
	s.logger.InfoContext(ctx, "sale completed",
		slog.String("sale_id", ev.SaleID),
		slog.String("final_amount", ev.FinalAmount),
		slog.Int("item_count", len(ev.Items)),
	)
	return nil
}
