package entity

import "context"

// Agent is a user of the back office eligible to receive leads.
type Agent struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

const RoleSales = "sales"

// AgentDirectory resolves the rotation pool. Results are ordered by the
// directory's natural order (id ascending).
type AgentDirectory interface {
	ListEligible(ctx context.Context, role string) ([]Agent, error)
}
