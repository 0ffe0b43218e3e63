package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type IngestLeadsUseCase struct {
	Store     LeadStore
	Directory entity.AgentDirectory
	Resolver  *IdentityResolver
	Role      string

	// Optional collaborators; nil disables them.
	Publisher AssignmentPublisher
	Recorder  RunRecorder
	Observer  RunObserver
}

func NewIngestLeadsUseCase(
	store LeadStore,
	directory entity.AgentDirectory,
	role string,
	publisher AssignmentPublisher,
	recorder RunRecorder,
	observer RunObserver,
) *IngestLeadsUseCase {
	if role == "" {
		role = entity.RoleSales
	}
	return &IngestLeadsUseCase{
		Store:     store,
		Directory: directory,
		Resolver:  NewIdentityResolver(store),
		Role:      role,
		Publisher: publisher,
		Recorder:  recorder,
		Observer:  observer,
	}
}

// Execute snapshots the eligible agents and runs one ingestion pass over
// source.
func (uc *IngestLeadsUseCase) Execute(ctx context.Context, source entity.LeadSource) (*RunSummary, error) {
	runID := uuid.New().String()
	started := time.Now().UTC()

	pool, err := uc.Directory.ListEligible(ctx, uc.Role)
	if err != nil {
		fatal := &TechnicalError{
			Code:    CodeDirectoryUnavailable,
			Message: "failed to load the agent pool: " + err.Error(),
			Err:     err,
		}
		uc.abort(ctx, runID, source.Kind(), started, fatal)
		return nil, fatal
	}

	return uc.run(ctx, runID, started, source, pool)
}

// Run performs one ingestion pass with an explicit pool snapshot.
func (uc *IngestLeadsUseCase) Run(ctx context.Context, source entity.LeadSource, pool []entity.Agent) (*RunSummary, error) {
	return uc.run(ctx, uuid.New().String(), time.Now().UTC(), source, pool)
}

func (uc *IngestLeadsUseCase) run(ctx context.Context, runID string, started time.Time, source entity.LeadSource, pool []entity.Agent) (*RunSummary, error) {
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("source", string(source.Kind())),
	)
	log.Info("ingestion run started", zap.Int("pool_size", len(pool)))

	r := &ingestRun{
		uc:      uc,
		log:     log,
		rotator: NewRotator(pool),
		summary: &RunSummary{
			RunID:     runID,
			Source:    source.Kind(),
			Errors:    []RecordError{},
			StartedAt: started,
		},
	}

	if err := source.Read(ctx, r); err != nil {
		fatal := asFatal(err)
		uc.abort(ctx, runID, source.Kind(), started, fatal)
		return nil, fatal
	}

	s := r.summary
	s.FinishedAt = time.Now().UTC()

	log.Info("ingestion run finished",
		zap.Int("created", s.Created),
		zap.Int("skipped", s.Skipped),
		zap.Int("errors", len(s.Errors)),
		zap.Int("cursor", r.rotator.Cursor()),
		zap.Int("pool_size", r.rotator.PoolSize()),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
	)

	if uc.Observer != nil {
		uc.Observer.RunFinished(s.Source, s.Outcome())
	}
	uc.save(ctx, RunRecord{
		RunID:     runID,
		Source:    s.Source,
		Status:    s.Outcome(),
		Summary:   s,
		StartedAt: s.StartedAt,
		EndedAt:   s.FinishedAt,
	})
	return s, nil
}

func (uc *IngestLeadsUseCase) abort(ctx context.Context, runID string, source entity.Source, started time.Time, err error) {
	zap.L().Error("ingestion run aborted",
		zap.String("run_id", runID),
		zap.String("source", string(source)),
		zap.String("code", ErrorCode(err)),
		zap.Error(err),
	)
	if uc.Observer != nil {
		uc.Observer.RunFinished(source, RunStatusAborted)
	}
	uc.save(ctx, RunRecord{
		RunID:     runID,
		Source:    source,
		Status:    RunStatusAborted,
		Error:     err.Error(),
		ErrorCode: ErrorCode(err),
		StartedAt: started,
		EndedAt:   time.Now().UTC(),
	})
}

func (uc *IngestLeadsUseCase) save(ctx context.Context, rec RunRecord) {
	if uc.Recorder == nil {
		return
	}
	// The run already happened; losing its history entry must not fail it.
	if err := uc.Recorder.Save(context.WithoutCancel(ctx), rec); err != nil {
		zap.L().Warn("failed to record ingestion run", zap.String("run_id", rec.RunID), zap.Error(err))
	}
}

func asFatal(err error) error {
	var de *DomainError
	var te *TechnicalError
	if errors.As(err, &de) || errors.As(err, &te) {
		return err
	}
	return &TechnicalError{
		Code:    CodeSourceFailed,
		Message: "lead source failed: " + err.Error(),
		Err:     err,
	}
}

// ingestRun is the per-run state. It is the sink handed to the source.
type ingestRun struct {
	uc      *IngestLeadsUseCase
	log     *zap.Logger
	rotator *Rotator
	summary *RunSummary
	index   int
}

func (r *ingestRun) Record(ctx context.Context, rec entity.RawRecord) error {
	r.index++
	where := fmt.Sprintf("record %d", r.index)
	if rec.ExternalID != "" {
		where += fmt.Sprintf(" (external_id %s)", rec.ExternalID)
	}

	draft := Normalize(rec)
	if !draft.HasIdentity() {
		r.log.Debug("draft has no identity keys", zap.String("record", where))
	}

	match, err := r.uc.Resolver.Resolve(ctx, draft)
	if err != nil {
		return &TechnicalError{
			Code:    CodeStoreUnavailable,
			Message: "cannot reach the lead store: " + err.Error(),
			Err:     err,
		}
	}
	if match.Decision == DecisionDuplicate {
		r.summary.Skipped++
		r.observe(OutcomeSkipped)
		r.log.Debug("duplicate lead skipped",
			zap.String("record", where),
			zap.String("key", match.Key),
			zap.Int64("existing_lead", match.LeadID),
		)
		return nil
	}

	agent := r.rotator.Peek()
	lead := entity.NewLead(draft, agent)
	if err := r.uc.Store.Create(ctx, lead); err != nil {
		r.summary.Errors = append(r.summary.Errors, RecordError{Context: where, Message: err.Error()})
		r.observe(OutcomeFailed)
		r.log.Warn("failed to persist lead", zap.String("record", where), zap.Error(err))
		return nil
	}
	r.rotator.Advance()
	r.summary.Created++
	r.observe(OutcomeCreated)

	if agent != nil {
		r.publish(ctx, lead, agent)
	}
	return nil
}

func (r *ingestRun) Fail(where, message string) {
	r.summary.Errors = append(r.summary.Errors, RecordError{Context: where, Message: message})
	r.observe(OutcomeFailed)
	r.log.Warn("source reported a skippable failure", zap.String("where", where), zap.String("message", message))
}

func (r *ingestRun) observe(outcome string) {
	if r.uc.Observer != nil {
		r.uc.Observer.RecordOutcome(r.summary.Source, outcome)
	}
}

func (r *ingestRun) publish(ctx context.Context, lead *entity.Lead, agent *entity.Agent) {
	if r.uc.Publisher == nil {
		return
	}
	payload := queue.LeadAssignedPayload{
		RunID:      r.summary.RunID,
		LeadID:     lead.ID,
		LeadName:   lead.Name,
		LeadEmail:  lead.Email,
		LeadPhone:  lead.Phone,
		LeadCity:   lead.City,
		Source:     string(lead.Source),
		AgentID:    agent.ID,
		AgentName:  agent.Username,
		AgentEmail: agent.Email,
	}
	if err := r.uc.Publisher.PublishLeadAssigned(ctx, payload); err != nil {
		r.log.Warn("lead persisted but assignment event was not published",
			zap.Int64("lead_id", lead.ID),
			zap.Error(err),
		)
	}
}
