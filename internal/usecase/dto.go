package usecase

import (
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusAborted RunStatus = "aborted"
)

// RunSummary is only produced for runs that read their source to the end.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Source     entity.Source `json:"source"`
	Created    int           `json:"created"`
	Skipped    int           `json:"skipped"`
	Errors     []RecordError `json:"errors"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func (s *RunSummary) Outcome() RunStatus {
	if len(s.Errors) > 0 {
		return RunStatusPartial
	}
	return RunStatusSuccess
}

// RunRecord is what gets stored per run. Aborted runs carry no counts.
type RunRecord struct {
	RunID     string        `json:"run_id"`
	Source    entity.Source `json:"source"`
	Status    RunStatus     `json:"status"`
	Summary   *RunSummary   `json:"summary,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
}

type SetLeadStatusInput struct {
	LeadID int64  `json:"-"`
	Status string `json:"status"`
}

type SetLeadStatusOutput struct {
	ID     int64             `json:"id"`
	Status entity.LeadStatus `json:"status"`
}
