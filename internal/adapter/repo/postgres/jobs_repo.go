package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// JobRepo loads job postings using a minimal pgx pool.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

const jobColumns = `id, employer_id, title, location, description, min_experience_years, required_skills, created_at`

// Get loads a job posting by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.JobPosting, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var j domain.JobPosting
	if err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Location, &j.Description,
		&j.MinExperienceYears, &j.RequiredSkills, &j.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JobPosting{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
		}
		return domain.JobPosting{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}

// ListOpen returns up to limit open job postings, newest first.
func (r *JobRepo) ListOpen(ctx domain.Context, limit int) ([]domain.JobPosting, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ListOpen")
	defer span.End()
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE open ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=job.list_open: %w", err)
	}
	defer rows.Close()

	var out []domain.JobPosting
	for rows.Next() {
		var j domain.JobPosting
		if err := rows.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Location, &j.Description,
			&j.MinExperienceYears, &j.RequiredSkills, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=job.list_open: scan: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=job.list_open: %w", err)
	}
	return out, nil
}
