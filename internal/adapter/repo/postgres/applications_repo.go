package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// ApplicationRepo persists computed match results on the application
// record keyed by (candidate, job). This is the durable match cache:
// a stored score above zero short-circuits recomputation.
type ApplicationRepo struct{ Pool PgxPool }

// NewApplicationRepo constructs an ApplicationRepo with the given pool.
func NewApplicationRepo(p PgxPool) *ApplicationRepo { return &ApplicationRepo{Pool: p} }

// matchDetail is the JSON shape stored in the match_detail column.
// The score lives in its own column so validity checks need no decode.
type matchDetail struct {
	Location    domain.SubScore `json:"location"`
	Experience  domain.SubScore `json:"experience"`
	Skills      domain.SubScore `json:"skills"`
	Education   domain.SubScore `json:"education"`
	Reasons     []string        `json:"reasons,omitempty"`
	RedFlags    []string        `json:"red_flags,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Analysis    string          `json:"analysis,omitempty"`
	Label       string          `json:"label,omitempty"`
	Emoji       string          `json:"emoji,omitempty"`
	Color       string          `json:"color,omitempty"`
	ErrorTag    string          `json:"error_tag,omitempty"`
}

// GetMatch loads the stored match result for (candidateID, jobID), or
// domain.ErrNotFound when no application row exists.
func (r *ApplicationRepo) GetMatch(ctx domain.Context, candidateID, jobID string) (domain.MatchResult, error) {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.GetMatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "applications"),
	)
	q := `SELECT match_score, match_detail, computed_at FROM applications WHERE candidate_id=$1 AND job_id=$2`
	row := r.Pool.QueryRow(ctx, q, candidateID, jobID)

	var m domain.MatchResult
	var detailRaw []byte
	var computedAt *time.Time
	if err := row.Scan(&m.Overall, &detailRaw, &computedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MatchResult{}, fmt.Errorf("op=application.get_match: %w", domain.ErrNotFound)
		}
		return domain.MatchResult{}, fmt.Errorf("op=application.get_match: %w", err)
	}
	m.CandidateID = candidateID
	m.JobID = jobID
	if computedAt != nil {
		m.ComputedAt = *computedAt
	}
	if len(detailRaw) > 0 {
		var d matchDetail
		if err := json.Unmarshal(detailRaw, &d); err == nil {
			m.Location = d.Location
			m.Experience = d.Experience
			m.Skills = d.Skills
			m.Education = d.Education
			m.Reasons = d.Reasons
			m.RedFlags = d.RedFlags
			m.Suggestions = d.Suggestions
			m.Analysis = d.Analysis
			m.Label = d.Label
			m.Emoji = d.Emoji
			m.Color = d.Color
			m.ErrorTag = d.ErrorTag
		}
	}
	return m, nil
}

// PutMatch upserts the match result onto the application record.
// Degraded results (score zero) are stored too so the UI can show the
// outcome, but GetMatch callers treat them as cache misses.
func (r *ApplicationRepo) PutMatch(ctx domain.Context, m domain.MatchResult) error {
	tracer := otel.Tracer("repo.applications")
	ctx, span := tracer.Start(ctx, "applications.PutMatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "applications"),
	)
	detail, err := json.Marshal(matchDetail{
		Location:    m.Location,
		Experience:  m.Experience,
		Skills:      m.Skills,
		Education:   m.Education,
		Reasons:     m.Reasons,
		RedFlags:    m.RedFlags,
		Suggestions: m.Suggestions,
		Analysis:    m.Analysis,
		Label:       m.Label,
		Emoji:       m.Emoji,
		Color:       m.Color,
		ErrorTag:    m.ErrorTag,
	})
	if err != nil {
		return fmt.Errorf("op=application.put_match: encode: %w", err)
	}
	now := time.Now().UTC()
	computedAt := m.ComputedAt
	if computedAt.IsZero() {
		computedAt = now
	}
	q := `INSERT INTO applications (candidate_id, job_id, match_score, match_detail, computed_at, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$6)
	      ON CONFLICT (candidate_id, job_id)
	      DO UPDATE SET match_score=EXCLUDED.match_score, match_detail=EXCLUDED.match_detail,
	                    computed_at=EXCLUDED.computed_at, updated_at=EXCLUDED.updated_at`
	if _, err := r.Pool.Exec(ctx, q, m.CandidateID, m.JobID, m.Overall, detail, computedAt, now); err != nil {
		return fmt.Errorf("op=application.put_match: %w", err)
	}
	return nil
}
