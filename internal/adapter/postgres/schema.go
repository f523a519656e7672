package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS archived_reports (
	pk         BIGSERIAL PRIMARY KEY,
	archive_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	jira_key   TEXT,
	digrep     VARCHAR(100),
	json_info  JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (project_id, archive_id)
);

CREATE INDEX IF NOT EXISTS idx_archived_reports_name ON archived_reports (name);
`

// EnsureSchema creates the catalog tables if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply catalog schema: %w", err)
	}
	return nil
}
