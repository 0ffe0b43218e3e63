package usecase

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type Decision int

const (
	DecisionUnique Decision = iota
	DecisionDuplicate
)

func (d Decision) String() string {
	if d == DecisionDuplicate {
		return "duplicate"
	}
	return "unique"
}

// Match explains a duplicate decision.
type Match struct {
	Decision Decision
	Key      string // external_id, email or phone
	LeadID   int64
}

// LeadFinder is the read side of the lead store.
type LeadFinder interface {
	FindByExternalID(ctx context.Context, externalID string) (*entity.Lead, error)
	FindByEmail(ctx context.Context, email string) (*entity.Lead, error)
	FindByPhone(ctx context.Context, phone string) (*entity.Lead, error)
}

type IdentityResolver struct {
	Finder LeadFinder
}

func NewIdentityResolver(finder LeadFinder) *IdentityResolver {
	return &IdentityResolver{Finder: finder}
}

// Resolve checks the identity keys in priority order and stops at the
// first hit. A lookup failure is returned as-is; the caller decides
// whether it is fatal.
func (r *IdentityResolver) Resolve(ctx context.Context, d entity.LeadDraft) (Match, error) {
	checks := []struct {
		key   string
		value string
		find  func(context.Context, string) (*entity.Lead, error)
	}{
		{"external_id", d.ExternalID, r.Finder.FindByExternalID},
		{"email", d.Email, r.Finder.FindByEmail},
		{"phone", d.Phone, r.Finder.FindByPhone},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		lead, err := c.find(ctx, c.value)
		if errors.Is(err, entity.ErrLeadNotFound) {
			continue
		}
		if err != nil {
			return Match{}, eris.Wrapf(err, "identity: lookup by %s", c.key)
		}
		if lead != nil {
			return Match{Decision: DecisionDuplicate, Key: c.key, LeadID: lead.ID}, nil
		}
	}
	return Match{Decision: DecisionUnique}, nil
}
