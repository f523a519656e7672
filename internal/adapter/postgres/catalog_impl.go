package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/page-archive-service/internal/entity"
)

// CatalogRepoImpl provides a concrete implementation for the CatalogRepository interface using PostgreSQL.
type CatalogRepoImpl struct {
	db *pgxpool.Pool
}

// NewCatalogRepo creates a new instance of CatalogRepoImpl.
func NewCatalogRepo(db *pgxpool.Pool) *CatalogRepoImpl {
	return &CatalogRepoImpl{db: db}
}

// GetOrCreateProject returns the project with the given name, inserting it on first use.
func (r *CatalogRepoImpl) GetOrCreateProject(ctx context.Context, name string) (*entity.Project, error) {
	query := `
		INSERT INTO projects (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name;
	`
	var p entity.Project
	if err := r.db.QueryRow(ctx, query, name).Scan(&p.ID, &p.Name); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjectNames returns all project names in ascending order.
func (r *CatalogRepoImpl) ListProjectNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM projects ORDER BY name ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SaveReport creates or updates a report. On conflict on (project, archive id)
// the descriptive columns are overwritten.
func (r *CatalogRepoImpl) SaveReport(ctx context.Context, report *entity.ArchivedReport) error {
	project, err := r.GetOrCreateProject(ctx, report.Project)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	var info []byte
	if report.JSONInfo != nil {
		if info, err = json.Marshal(report.JSONInfo); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO archived_reports (archive_id, name, project_id, jira_key, digrep, json_info)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, archive_id) DO UPDATE SET
			name = EXCLUDED.name,
			jira_key = EXCLUDED.jira_key,
			digrep = EXCLUDED.digrep,
			json_info = EXCLUDED.json_info
		RETURNING pk, created_at;
	`
	return r.db.QueryRow(ctx, query,
		report.ArchiveID,
		report.Name,
		project.ID,
		nullIfEmpty(report.JiraKey),
		nullIfEmpty(report.Digrep),
		info,
	).Scan(&report.PK, &report.CreatedAt)
}

const reportColumns = `
	r.pk, r.archive_id, r.name, p.name, COALESCE(r.jira_key, ''), COALESCE(r.digrep, ''), r.json_info, r.created_at
`

// FindReport retrieves one report. It returns entity.ErrNotFound if the report does not exist.
func (r *CatalogRepoImpl) FindReport(ctx context.Context, project, archiveID string) (*entity.ArchivedReport, error) {
	query := `SELECT ` + reportColumns + `
		FROM archived_reports r
		JOIN projects p ON p.id = r.project_id
		WHERE p.name = $1 AND r.archive_id = $2;
	`
	report, err := scanReport(r.db.QueryRow(ctx, query, project, archiveID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return report, err
}

// SearchReports filters by project and a case-insensitive term matched
// against name, archive id and ticket key.
func (r *CatalogRepoImpl) SearchReports(ctx context.Context, params entity.SearchParams) (*entity.ReportPage, error) {
	where := `
		WHERE ($1 = '' OR p.name = $1)
		AND ($2 = '' OR r.name ILIKE $2 ESCAPE '\' OR r.archive_id ILIKE $2 ESCAPE '\' OR r.jira_key ILIKE $2 ESCAPE '\')
	`
	pattern := ""
	if params.Search != "" {
		pattern = "%" + escapeLike(params.Search) + "%"
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM archived_reports r JOIN projects p ON p.id = r.project_id ` + where
	if err := r.db.QueryRow(ctx, countQuery, params.Project, pattern).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT ` + reportColumns + `
		FROM archived_reports r
		JOIN projects p ON p.id = r.project_id
	` + where + `
		ORDER BY r.name ASC, r.pk ASC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.db.Query(ctx, query, params.Project, pattern, params.Size, params.Page*params.Size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &entity.ReportPage{
		Items:      []entity.ArchivedReport{},
		Total:      total,
		Page:       params.Page,
		Size:       params.Size,
		TotalPages: totalPages(total, params.Size),
	}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *report)
	}
	return page, rows.Err()
}

func scanReport(row pgx.Row) (*entity.ArchivedReport, error) {
	var report entity.ArchivedReport
	var info []byte
	if err := row.Scan(
		&report.PK,
		&report.ArchiveID,
		&report.Name,
		&report.Project,
		&report.JiraKey,
		&report.Digrep,
		&info,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &report.JSONInfo); err != nil {
			return nil, err
		}
	}
	return &report, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func totalPages(total int64, size int) int {
	if size <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
