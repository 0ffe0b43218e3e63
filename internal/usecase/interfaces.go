package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type LeadStore interface {
	LeadFinder
	Create(ctx context.Context, lead *entity.Lead) error
}

type LeadStatusRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Lead, error)
	UpdateStatus(ctx context.Context, id int64, status entity.LeadStatus) error
}

type AssignmentPublisher interface {
	PublishLeadAssigned(ctx context.Context, payload queue.LeadAssignedPayload) error
}

// RunRecorder keeps finished and aborted runs for later lookup.
type RunRecorder interface {
	Save(ctx context.Context, rec RunRecord) error
}

// RunObserver is told about every record outcome and every finished run.
type RunObserver interface {
	RecordOutcome(source entity.Source, outcome string)
	RunFinished(source entity.Source, status RunStatus)
}
