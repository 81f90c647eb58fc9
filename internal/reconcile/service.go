package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/config"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

// Service periodically repairs sales recorded with deferred stock
// effects: it applies the stock decrements and customer ledger updates
// the recording path skipped. A sale that still cannot be applied (for
// example when stock ran out in the meantime) stays pending and is
// picked up again on a later pass.
type Service struct {
	cfg     config.Reconciler
	logger  *slog.Logger
	saleSvc service.SaleService

	stopChan chan struct{}
}

func NewService(cfg config.Reconciler, logger *slog.Logger, saleSvc service.SaleService) *Service {
	return &Service{
		cfg:      cfg,
		logger:   logger.With(slog.String("service", "reconcile")),
		saleSvc:  saleSvc,
		stopChan: make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
		}
	}
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-time.After(s.cfg.Interval):
			//nolint:gosec
			applied, skipped, err := s.saleSvc.ReconcilePendingSales(ctx, int32(s.cfg.BatchSize))
			if err != nil {
				s.logger.ErrorContext(ctx, "error reconciling pending sales", slog.Any("error", err))
				continue
			}

			if len(applied) == 0 && len(skipped) == 0 {
				continue
			}

			s.logger.InfoContext(ctx, "reconciled pending sales",
				slog.Int("applied", len(applied)),
				slog.Int("skipped", len(skipped)),
			)

			// Skipped sales are committed records whose stock effects are
			// still missing. Log them under the partial-commit code so they
			// can be alerted on.
			for _, id := range skipped {
				s.logger.WarnContext(ctx, "sale left pending",
					slog.String("sale_id", id.String()),
					slog.Any("error", apperr.PartialCommitErr),
				)
			}
		}
	}
}
