package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the service needs when they do not
// exist yet. Deployments that run managed migrations can skip this.
func EnsureSchema(ctx context.Context, pool PgxPool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			id UUID PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			cv_file_path TEXT NOT NULL DEFAULT '',
			cv_text TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cvs (
			id UUID PRIMARY KEY,
			candidate_id UUID NOT NULL REFERENCES candidates(id),
			name TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL,
			extracted_text TEXT NOT NULL DEFAULT '',
			analysis JSONB,
			score DOUBLE PRECISION,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cvs_candidate ON cvs (candidate_id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id UUID PRIMARY KEY,
			employer_id UUID NOT NULL,
			title TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			min_experience_years INT NOT NULL DEFAULT 0,
			required_skills TEXT[] NOT NULL DEFAULT '{}',
			open BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			candidate_id UUID NOT NULL,
			job_id UUID NOT NULL,
			match_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			match_detail JSONB,
			computed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (candidate_id, job_id)
		)`,
	}
	for _, q := range stmts {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("op=postgres.ensure_schema: %w", err)
		}
	}
	return nil
}
