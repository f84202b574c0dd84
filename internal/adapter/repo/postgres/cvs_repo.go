package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// CVRepo persists and loads CV records using a minimal pgx pool.
type CVRepo struct{ Pool PgxPool }

// NewCVRepo constructs a CVRepo with the given pool.
func NewCVRepo(p PgxPool) *CVRepo { return &CVRepo{Pool: p} }

const cvColumns = `id, candidate_id, name, file_path, extracted_text, analysis, score, active, is_default, created_at, updated_at`

func scanCV(row pgx.Row) (domain.CVRecord, error) {
	var cv domain.CVRecord
	var analysisRaw []byte
	if err := row.Scan(&cv.ID, &cv.CandidateID, &cv.Name, &cv.FilePath, &cv.ExtractedText,
		&analysisRaw, &cv.Score, &cv.Active, &cv.IsDefault, &cv.CreatedAt, &cv.UpdatedAt); err != nil {
		return domain.CVRecord{}, err
	}
	if len(analysisRaw) > 0 {
		_ = json.Unmarshal(analysisRaw, &cv.Analysis)
	}
	return cv, nil
}

// Create stores a new CV record and returns its id (generates one if empty).
func (r *CVRepo) Create(ctx domain.Context, cv domain.CVRecord) (string, error) {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "cvs"),
	)
	id := cv.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO cvs (id, candidate_id, name, file_path, extracted_text, score, active, is_default, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.Pool.Exec(ctx, q, id, cv.CandidateID, cv.Name, cv.FilePath, cv.ExtractedText,
		cv.Score, true, cv.IsDefault, now, now)
	if err != nil {
		return "", fmt.Errorf("op=cv.create: %w", err)
	}
	return id, nil
}

// Get loads a CV record by id.
func (r *CVRepo) Get(ctx domain.Context, id string) (domain.CVRecord, error) {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.Get")
	defer span.End()
	q := `SELECT ` + cvColumns + ` FROM cvs WHERE id=$1`
	cv, err := scanCV(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CVRecord{}, fmt.Errorf("op=cv.get: %w", domain.ErrNotFound)
		}
		return domain.CVRecord{}, fmt.Errorf("op=cv.get: %w", err)
	}
	return cv, nil
}

// DefaultForCandidate loads the candidate's active default CV.
func (r *CVRepo) DefaultForCandidate(ctx domain.Context, candidateID string) (domain.CVRecord, error) {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.DefaultForCandidate")
	defer span.End()
	q := `SELECT ` + cvColumns + ` FROM cvs WHERE candidate_id=$1 AND active AND is_default LIMIT 1`
	cv, err := scanCV(r.Pool.QueryRow(ctx, q, candidateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CVRecord{}, fmt.Errorf("op=cv.default: %w", domain.ErrNotFound)
		}
		return domain.CVRecord{}, fmt.Errorf("op=cv.default: %w", err)
	}
	return cv, nil
}

// LatestForCandidate loads the candidate's most recently updated active CV.
func (r *CVRepo) LatestForCandidate(ctx domain.Context, candidateID string) (domain.CVRecord, error) {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.LatestForCandidate")
	defer span.End()
	q := `SELECT ` + cvColumns + ` FROM cvs WHERE candidate_id=$1 AND active ORDER BY updated_at DESC LIMIT 1`
	cv, err := scanCV(r.Pool.QueryRow(ctx, q, candidateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CVRecord{}, fmt.Errorf("op=cv.latest: %w", domain.ErrNotFound)
		}
		return domain.CVRecord{}, fmt.Errorf("op=cv.latest: %w", err)
	}
	return cv, nil
}

// CountActive returns the number of active CVs a candidate has.
func (r *CVRepo) CountActive(ctx domain.Context, candidateID string) (int64, error) {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.CountActive")
	defer span.End()
	q := `SELECT COUNT(*) FROM cvs WHERE candidate_id=$1 AND active`
	var n int64
	if err := r.Pool.QueryRow(ctx, q, candidateID).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=cv.count_active: %w", err)
	}
	return n, nil
}

// SetDefault marks one CV as the candidate's default and clears the flag
// on every other CV, in one transaction.
func (r *CVRepo) SetDefault(ctx domain.Context, candidateID, cvID string) error {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.SetDefault")
	defer span.End()
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("op=cv.set_default: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE cvs SET is_default=FALSE, updated_at=$2 WHERE candidate_id=$1 AND is_default`,
		candidateID, now); err != nil {
		return fmt.Errorf("op=cv.set_default: clear: %w", err)
	}
	tag, err := tx.Exec(ctx,
		`UPDATE cvs SET is_default=TRUE, updated_at=$3 WHERE id=$1 AND candidate_id=$2 AND active`,
		cvID, candidateID, now)
	if err != nil {
		return fmt.Errorf("op=cv.set_default: set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=cv.set_default: %w", domain.ErrNotFound)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=cv.set_default: commit: %w", err)
	}
	return nil
}

// SoftDelete deactivates a CV without removing the row.
func (r *CVRepo) SoftDelete(ctx domain.Context, candidateID, cvID string) error {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.SoftDelete")
	defer span.End()
	q := `UPDATE cvs SET active=FALSE, is_default=FALSE, updated_at=$3 WHERE id=$1 AND candidate_id=$2`
	tag, err := r.Pool.Exec(ctx, q, cvID, candidateID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=cv.soft_delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=cv.soft_delete: %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateAnalysis stores the analysis produced by the asynchronous
// pipeline together with the standalone CV score.
func (r *CVRepo) UpdateAnalysis(ctx domain.Context, cvID string, analysis domain.CVAnalysis, score *float64) error {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.UpdateAnalysis")
	defer span.End()
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("op=cv.update_analysis: encode: %w", err)
	}
	q := `UPDATE cvs SET analysis=$2, score=$3, updated_at=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, cvID, raw, score, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=cv.update_analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=cv.update_analysis: %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateExtractedText stores the text extracted from the CV file.
func (r *CVRepo) UpdateExtractedText(ctx domain.Context, cvID, text string) error {
	tracer := otel.Tracer("repo.cvs")
	ctx, span := tracer.Start(ctx, "cvs.UpdateExtractedText")
	defer span.End()
	q := `UPDATE cvs SET extracted_text=$2, updated_at=$3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, cvID, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=cv.update_text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=cv.update_text: %w", domain.ErrNotFound)
	}
	return nil
}
