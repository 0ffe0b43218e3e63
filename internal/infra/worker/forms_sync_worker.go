package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type Ingester interface {
	Execute(ctx context.Context, source entity.LeadSource) (*usecase.RunSummary, error)
}

// FormsSyncWorker pulls the lead forms API on a fixed interval. Runs never
// overlap: a tick that arrives during a run is dropped by the ticker.
type FormsSyncWorker struct {
	ingester     Ingester
	source       entity.LeadSource
	tickInterval time.Duration
}

func NewFormsSyncWorker(ingester Ingester, source entity.LeadSource, interval time.Duration) *FormsSyncWorker {
	return &FormsSyncWorker{
		ingester:     ingester,
		source:       source,
		tickInterval: interval,
	}
}

func (w *FormsSyncWorker) Start(ctx context.Context) {
	zap.L().Info("forms sync worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("forms sync worker stopped")
			return
		case <-ticker.C:
			w.sync(ctx)
		}
	}
}

func (w *FormsSyncWorker) sync(ctx context.Context) {
	summary, err := w.ingester.Execute(ctx, w.source)
	if err != nil {
		// already logged with its run id by the use case
		zap.L().Warn("scheduled forms sync aborted", zap.String("code", usecase.ErrorCode(err)))
		return
	}
	if summary.Created > 0 || len(summary.Errors) > 0 {
		zap.L().Info("scheduled forms sync finished",
			zap.String("run_id", summary.RunID),
			zap.Int("created", summary.Created),
			zap.Int("skipped", summary.Skipped),
			zap.Int("errors", len(summary.Errors)),
		)
	}
}
