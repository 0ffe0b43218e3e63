package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

// memStore is an in-memory LeadStore with the same matching rules as the
// SQL repository.
type memStore struct {
	mu     sync.Mutex
	leads  []*entity.Lead
	nextID int64

	// failCreate makes the n-th Create call (1-based) fail.
	failCreate map[int]error
	creates    int
	findErr    error
}

func newMemStore() *memStore {
	return &memStore{failCreate: map[int]error{}}
}

func (s *memStore) find(match func(*entity.Lead) bool) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, l := range s.leads {
		if match(l) {
			return l, nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

func (s *memStore) FindByExternalID(_ context.Context, id string) (*entity.Lead, error) {
	return s.find(func(l *entity.Lead) bool { return l.ExternalID == id })
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*entity.Lead, error) {
	return s.find(func(l *entity.Lead) bool { return l.Email != "" && strings.EqualFold(l.Email, email) })
}

func (s *memStore) FindByPhone(_ context.Context, phone string) (*entity.Lead, error) {
	return s.find(func(l *entity.Lead) bool { return l.Phone == phone })
}

func (s *memStore) Create(_ context.Context, lead *entity.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if err := s.failCreate[s.creates]; err != nil {
		return err
	}
	s.nextID++
	lead.ID = s.nextID
	s.leads = append(s.leads, lead)
	return nil
}

func (s *memStore) assignees() []int64 {
	out := make([]int64, 0, len(s.leads))
	for _, l := range s.leads {
		if l.AssignedTo == nil {
			out = append(out, 0)
			continue
		}
		out = append(out, *l.AssignedTo)
	}
	return out
}

type staticDirectory struct {
	agents []entity.Agent
	err    error
	role   string
}

func (d *staticDirectory) ListEligible(_ context.Context, role string) ([]entity.Agent, error) {
	d.role = role
	return d.agents, d.err
}

// sliceSource replays fixed records and skippable failures.
type sliceSource struct {
	kind     entity.Source
	records  []entity.RawRecord
	failures []RecordError
	err      error
}

func (s *sliceSource) Kind() entity.Source { return s.kind }

func (s *sliceSource) Read(ctx context.Context, sink entity.RecordSink) error {
	for _, f := range s.failures {
		sink.Fail(f.Context, f.Message)
	}
	for _, rec := range s.records {
		if err := sink.Record(ctx, rec); err != nil {
			return err
		}
	}
	return s.err
}

func apiRecord(externalID string, fields map[string]string) entity.RawRecord {
	rec := entity.RawRecord{Source: entity.SourceExternalAPI, ExternalID: externalID, FormID: "form-1"}
	for name, value := range fields {
		raw, _ := json.Marshal([]string{value})
		rec.Fields = append(rec.Fields, entity.RawField{Name: name, Values: raw})
	}
	return rec
}

func csvRecord(cols ...string) entity.RawRecord {
	rec := entity.RawRecord{Source: entity.SourceBulkUpload}
	for i := 0; i+1 < len(cols); i += 2 {
		rec.Columns = append(rec.Columns, entity.Column{Name: cols[i], Value: cols[i+1]})
	}
	return rec
}

func agents(ids ...int64) []entity.Agent {
	out := make([]entity.Agent, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Agent{ID: id, Username: "agent", Email: "agent@x.com", Role: entity.RoleSales, Active: true})
	}
	return out
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLeadAssigned(ctx context.Context, p queue.LeadAssignedPayload) error {
	return m.Called(ctx, p).Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Save(ctx context.Context, rec RunRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type countingObserver struct {
	outcomes map[string]int
	runs     []RunStatus
}

func newCountingObserver() *countingObserver {
	return &countingObserver{outcomes: map[string]int{}}
}

func (o *countingObserver) RecordOutcome(_ entity.Source, outcome string) { o.outcomes[outcome]++ }

func (o *countingObserver) RunFinished(_ entity.Source, status RunStatus) {
	o.runs = append(o.runs, status)
}

var errBoom = errors.New("boom")
