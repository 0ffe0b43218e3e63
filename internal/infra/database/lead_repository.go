package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const leadColumns = `id, name, email, phone, city, source, status, assigned_to,
	external_id, form_id, raw_data, created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
	// Timeout bounds every single statement; zero means no bound.
	Timeout time.Duration
}

func NewLeadRepository(db *sql.DB, timeout time.Duration) *LeadRepository {
	return &LeadRepository{DB: db, Timeout: timeout}
}

func (r *LeadRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Lead, error) {
	return r.findOne(ctx, "external_id = $1", externalID)
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *LeadRepository) FindByPhone(ctx context.Context, phone string) (*entity.Lead, error) {
	return r.findOne(ctx, "phone = $1", phone)
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *LeadRepository) findOne(ctx context.Context, where string, arg any) (*entity.Lead, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query := "SELECT " + leadColumns + " FROM leads WHERE " + where + " ORDER BY id LIMIT 1"
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "leads: find where %s", where)
	}
	return lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	raw, err := marshalPayload(lead.RawPayload)
	if err != nil {
		return eris.Wrap(err, "leads: marshal raw payload")
	}

	query := `
		INSERT INTO leads (name, email, phone, city, source, status, assigned_to,
			external_id, form_id, raw_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err = r.DB.QueryRowContext(ctx, query,
		nullString(lead.Name),
		nullString(lead.Email),
		nullString(lead.Phone),
		nullString(lead.City),
		string(lead.Source),
		string(lead.Status),
		lead.AssignedTo,
		nullString(lead.ExternalID),
		nullString(lead.FormID),
		nullString(string(raw)),
		lead.CreatedAt,
		lead.UpdatedAt,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicateExternalID
		}
		return eris.Wrap(err, "leads: insert")
	}
	return nil
}

// List returns leads newest first.
func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT " + leadColumns + " FROM leads"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "leads: list")
	}
	defer rows.Close()

	leads := []entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "leads: scan")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "leads: iterate")
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id int64, status entity.LeadStatus) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrap(err, "leads: update status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "leads: update status rows")
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead                                  entity.Lead
		name, email, phone, city, extID, form sql.NullString
		source, status                        string
		assignedTo                            sql.NullInt64
		raw                                   []byte
	)
	err := row.Scan(&lead.ID, &name, &email, &phone, &city, &source, &status, &assignedTo,
		&extID, &form, &raw, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}

	lead.Name = name.String
	lead.Email = email.String
	lead.Phone = phone.String
	lead.City = city.String
	lead.Source = entity.Source(source)
	lead.Status = entity.LeadStatus(status)
	lead.ExternalID = extID.String
	lead.FormID = form.String
	if assignedTo.Valid {
		id := assignedTo.Int64
		lead.AssignedTo = &id
	}
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&lead.RawPayload); err != nil {
			return nil, eris.Wrap(err, "decode raw_data")
		}
	}
	return &lead, nil
}

func marshalPayload(p map[string]any) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
