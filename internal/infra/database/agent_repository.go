package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// AgentRepository reads the user directory owned by the back office.
type AgentRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewAgentRepository(db *sql.DB, timeout time.Duration) *AgentRepository {
	return &AgentRepository{DB: db, Timeout: timeout}
}

func (r *AgentRepository) ListEligible(ctx context.Context, role string) ([]entity.Agent, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query := `
		SELECT id, username, COALESCE(email, ''), role, is_active
		FROM users
		WHERE role = $1 AND is_active = TRUE
		ORDER BY id
	`

	rows, err := r.DB.QueryContext(ctx, query, role)
	if err != nil {
		return nil, eris.Wrap(err, "agents: list eligible")
	}
	defer rows.Close()

	var agents []entity.Agent
	for rows.Next() {
		var a entity.Agent
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &a.Active); err != nil {
			return nil, eris.Wrap(err, "agents: scan")
		}
		agents = append(agents, a)
	}
	return agents, eris.Wrap(rows.Err(), "agents: iterate")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
