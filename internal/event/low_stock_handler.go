package event

import (
	"context"
	"log/slog"
)

const TopicProductLowStock = "product.low_stock"

type ProductLowStockEvent struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
}

// handleProductLowStockEvent surfaces reorder conditions to the operator log.
// Notification channels (mail, messaging) would hang off this handler.
func (s *Service) handleProductLowStockEvent(ctx context.Context, ev ProductLowStockEvent) error {
	s.logger.WarnContext(ctx, "product stock at or below reorder threshold",
		slog.String("product_id", ev.ProductID),
		slog.String("name", ev.Name),
		slog.Int("quantity", ev.Quantity),
		slog.Int("min_quantity", ev.MinQuantity),
	)
	return nil
}
