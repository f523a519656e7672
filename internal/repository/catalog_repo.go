package repository

import (
	"context"

	"github.com/user/page-archive-service/internal/entity"
)

// CatalogRepository defines the interface for archive metadata storage.
type CatalogRepository interface {
	// GetOrCreateProject returns the project with the given name, creating it if needed.
	GetOrCreateProject(ctx context.Context, name string) (*entity.Project, error)
	// ListProjectNames returns all project names sorted ascending.
	ListProjectNames(ctx context.Context) ([]string, error)
	// SaveReport creates or updates a report keyed by project and archive id.
	SaveReport(ctx context.Context, report *entity.ArchivedReport) error
	// FindReport returns entity.ErrNotFound when the report does not exist.
	FindReport(ctx context.Context, project, archiveID string) (*entity.ArchivedReport, error)
	// SearchReports returns one page of reports ordered by name.
	SearchReports(ctx context.Context, params entity.SearchParams) (*entity.ReportPage, error)
}
