package usecase

import "github.com/xavierca1/ligue-leads/internal/entity"

// Rotator hands out agents round-robin over a pool snapshotted when the
// run starts. It belongs to a single run and is not safe for concurrent use.
type Rotator struct {
	pool   []entity.Agent
	cursor int
}

func NewRotator(pool []entity.Agent) *Rotator {
	snapshot := make([]entity.Agent, len(pool))
	copy(snapshot, pool)
	return &Rotator{pool: snapshot}
}

// Peek returns the agent under the cursor without moving it, or nil when
// the pool is empty.
func (r *Rotator) Peek() *entity.Agent {
	if len(r.pool) == 0 {
		return nil
	}
	agent := r.pool[r.cursor%len(r.pool)]
	return &agent
}

// Advance moves the cursor one position. No-op on an empty pool.
func (r *Rotator) Advance() {
	if len(r.pool) > 0 {
		r.cursor++
	}
}

// Next returns the agent under the cursor and advances it.
func (r *Rotator) Next() *entity.Agent {
	agent := r.Peek()
	r.Advance()
	return agent
}

func (r *Rotator) Cursor() int { return r.cursor }

func (r *Rotator) PoolSize() int { return len(r.pool) }
