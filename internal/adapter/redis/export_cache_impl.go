package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/pkg/utils"
)

const (
	exportResultPrefix = "export:"
	exportedPrefix     = "exported:"
)

// ExportCacheRepoImpl provides a concrete implementation for the ExportCacheRepository interface using Redis.
type ExportCacheRepoImpl struct {
	client *redis.Client
}

// NewExportCacheRepo creates a new instance of ExportCacheRepoImpl.
func NewExportCacheRepo(client *redis.Client) *ExportCacheRepoImpl {
	return &ExportCacheRepoImpl{client: client}
}

func resultKey(project, archiveID string) string {
	return fmt.Sprintf("%s%s:%s", exportResultPrefix, project, archiveID)
}

// exportedKey hashes the source key so arbitrary URLs make safe keys.
func exportedKey(sourceKey string) string {
	return exportedPrefix + utils.HashURL(sourceKey)
}

// SaveResult stores the result as JSON with an expiry.
func (r *ExportCacheRepoImpl) SaveResult(ctx context.Context, result *entity.ExportResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, resultKey(result.Project, result.ArchiveID), data, ttl).Err()
}

// FindResult returns entity.ErrNotFound if the result expired or was never cached.
func (r *ExportCacheRepoImpl) FindResult(ctx context.Context, project, archiveID string) (*entity.ExportResult, error) {
	data, err := r.client.Get(ctx, resultKey(project, archiveID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	var result entity.ExportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkExported records a recent export of the source page.
func (r *ExportCacheRepoImpl) MarkExported(ctx context.Context, sourceKey string, ttl time.Duration) error {
	return r.client.SetEx(ctx, exportedKey(sourceKey), "1", ttl).Err()
}

// IsRecentlyExported checks for the marker set by MarkExported.
func (r *ExportCacheRepoImpl) IsRecentlyExported(ctx context.Context, sourceKey string) (bool, error) {
	val, err := r.client.Exists(ctx, exportedKey(sourceKey)).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// ClearExported removes the marker, used for forced exports.
func (r *ExportCacheRepoImpl) ClearExported(ctx context.Context, sourceKey string) error {
	return r.client.Del(ctx, exportedKey(sourceKey)).Err()
}
