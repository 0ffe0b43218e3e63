package entity

import (
	"context"
	"errors"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusConverted:
		return true
	}
	return false
}

// Source tags where a lead entered the system.
type Source string

const (
	SourceExternalAPI Source = "external_api"
	SourceBulkUpload  Source = "bulk_upload"
)

var (
	ErrLeadNotFound        = errors.New("lead not found")
	ErrDuplicateExternalID = errors.New("a lead with this external_id already exists")
	ErrInvalidStatus       = errors.New("invalid lead status")
)

// LeadDraft is the normalized candidate produced from one raw record.
// Optional fields are empty strings when absent.
type LeadDraft struct {
	Name       string         `json:"name,omitempty"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	City       string         `json:"city,omitempty"`
	Source     Source         `json:"source"`
	ExternalID string         `json:"external_id,omitempty"`
	FormID     string         `json:"form_id,omitempty"`
	RawPayload map[string]any `json:"raw_payload,omitempty"`
}

// HasIdentity reports whether the draft can ever be matched by content.
func (d LeadDraft) HasIdentity() bool {
	return d.ExternalID != "" || d.Email != "" || d.Phone != ""
}

type Lead struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name,omitempty"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	City       string         `json:"city,omitempty"`
	Source     Source         `json:"source"`
	Status     LeadStatus     `json:"status"`
	AssignedTo *int64         `json:"assigned_to,omitempty"`
	ExternalID string         `json:"external_id,omitempty"`
	FormID     string         `json:"form_id,omitempty"`
	RawPayload map[string]any `json:"raw_payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewLead builds the entity persisted for an accepted draft.
func NewLead(d LeadDraft, agent *Agent) *Lead {
	now := time.Now().UTC()
	lead := &Lead{
		Name:       d.Name,
		Email:      d.Email,
		Phone:      d.Phone,
		City:       d.City,
		Source:     d.Source,
		Status:     LeadStatusNew,
		ExternalID: d.ExternalID,
		FormID:     d.FormID,
		RawPayload: d.RawPayload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if agent != nil {
		id := agent.ID
		lead.AssignedTo = &id
	}
	return lead
}

type LeadFilter struct {
	AssignedTo *int64
	Status     LeadStatus
	Limit      int
}

type LeadRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*Lead, error)
	// FindByEmail compares case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Lead, error)
	FindByPhone(ctx context.Context, phone string) (*Lead, error)
	Create(ctx context.Context, lead *Lead) error

	FindByID(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	UpdateStatus(ctx context.Context, id int64, status LeadStatus) error
}
