package redis

import (
	"context"
	"encoding/json"

	"github.com/user/page-archive-service/internal/entity"
)

const recentExportsKey = "exports:recent"

// RecordRecent pushes the result onto the head of the recent exports list
// and trims the list to keep entries.
func (r *ExportCacheRepoImpl) RecordRecent(ctx context.Context, result *entity.ExportResult, keep int64) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, recentExportsKey, data)
	pipe.LTrim(ctx, recentExportsKey, 0, keep-1)
	_, err = pipe.Exec(ctx)
	return err
}

// ListRecent returns up to n results, newest first.
func (r *ExportCacheRepoImpl) ListRecent(ctx context.Context, n int64) ([]entity.ExportResult, error) {
	items, err := r.client.LRange(ctx, recentExportsKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]entity.ExportResult, 0, len(items))
	for _, item := range items {
		var result entity.ExportResult
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			continue
		}
		out = append(out, result)
	}
	return out, nil
}
