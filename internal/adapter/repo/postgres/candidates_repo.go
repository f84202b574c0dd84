package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// CandidateRepo loads candidate profiles using a minimal pgx pool.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

// Get loads a candidate profile by id.
func (r *CandidateRepo) Get(ctx domain.Context, id string) (domain.CandidateProfile, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT id, full_name, email, cv_file_path, cv_text, created_at, updated_at FROM candidates WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var c domain.CandidateProfile
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.LegacyCVFilePath, &c.LegacyCVText, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CandidateProfile{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
		}
		return domain.CandidateProfile{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return c, nil
}
