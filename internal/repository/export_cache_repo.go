package repository

import (
	"context"
	"time"

	"github.com/user/page-archive-service/internal/entity"
)

// ExportCacheRepository keeps short-lived export state between workflow steps.
type ExportCacheRepository interface {
	// SaveResult stores an export result with an expiry.
	SaveResult(ctx context.Context, result *entity.ExportResult, ttl time.Duration) error
	// FindResult returns entity.ErrNotFound when nothing is cached.
	FindResult(ctx context.Context, project, archiveID string) (*entity.ExportResult, error)
	// MarkExported records that a source page was exported recently.
	MarkExported(ctx context.Context, sourceKey string, ttl time.Duration) error
	// IsRecentlyExported checks for a marker set by MarkExported.
	IsRecentlyExported(ctx context.Context, sourceKey string) (bool, error)
	// ClearExported removes the marker, used for forced exports.
	ClearExported(ctx context.Context, sourceKey string) error
	// RecordRecent prepends a result to the bounded recent exports list.
	RecordRecent(ctx context.Context, result *entity.ExportResult, keep int64) error
	// ListRecent returns up to n recent results, newest first.
	ListRecent(ctx context.Context, n int64) ([]entity.ExportResult, error)
}
