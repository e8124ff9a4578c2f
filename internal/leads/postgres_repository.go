package leads

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores submissions in the lead_submissions table.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{pool: q}
}

// Create inserts a single row. The database assigns id, status and
// submitted_at. Failures are never retried here.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateSubmissionRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO lead_submissions (name, company_name, email, phone, service_type, location, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, submitted_at
	`
	sub := &Submission{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		ServiceType: req.ServiceType,
		Location:    req.Location,
		Message:     req.Message,
	}
	var status string
	if err := r.pool.QueryRow(ctx, query,
		req.Name,
		nullIfEmpty(req.CompanyName),
		req.Email,
		req.Phone,
		req.ServiceType,
		req.Location,
		nullIfEmpty(req.Message),
		string(StatusNew),
	).Scan(&sub.ID, &status, &sub.SubmittedAt); err != nil {
		return nil, fmt.Errorf("%w: insert failed: %w", ErrStore, err)
	}
	sub.Status = Status(status)

	return sub, nil
}

// Count returns the number of stored submissions. Used as the database
// connectivity probe.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM lead_submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count failed: %w", ErrStore, err)
	}
	return n, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
