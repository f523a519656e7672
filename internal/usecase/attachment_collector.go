package usecase

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/repository"
	"github.com/user/page-archive-service/pkg/metrics"
	"github.com/user/page-archive-service/pkg/utils"
)

// AttachmentCollector downloads page attachments into an AttachmentSet.
type AttachmentCollector struct {
	content repository.ContentRepository
	logger  *zap.Logger
}

// NewAttachmentCollector creates a collector over the content repository.
func NewAttachmentCollector(content repository.ContentRepository, logger *zap.Logger) *AttachmentCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentCollector{content: content, logger: logger}
}

// Collect lists and downloads the attachments of pageID and returns a new set
// extending set. Listing and download failures are logged, never returned.
func (c *AttachmentCollector) Collect(ctx context.Context, set entity.AttachmentSet, apiBase, webBase, pageID string) entity.AttachmentSet {
	out := set.Clone()

	refs, err := c.content.ListAttachments(ctx, apiBase, pageID)
	if err != nil {
		c.logger.Warn("failed to list attachments", zap.String("page_id", pageID), zap.Error(err))
		metrics.AttachmentsTotal.WithLabelValues("list_failed").Inc()
		return out
	}

	for _, ref := range refs {
		safeName := utils.SanitizeAttachmentName(ref.Title)
		zipPath := entity.AttachmentsPrefix + ref.ID + "_" + safeName
		out.Mapping.Add(pageID, ref.Title, zipPath)
		out.Mapping.Add(pageID, safeName, zipPath)

		downloadURL := attachmentDownloadURL(webBase, pageID, ref)
		entry := entity.AttachmentEntry{ZipPath: zipPath}
		data, err := c.content.Download(ctx, downloadURL)
		switch {
		case err != nil:
			entry.Status = entity.DownloadFailed
			c.logger.Warn("failed to download attachment",
				zap.String("page_id", pageID),
				zap.String("attachment_id", ref.ID),
				zap.String("url", downloadURL),
				zap.Error(err),
			)
		case len(data) == 0:
			entry.Status = entity.DownloadEmpty
		default:
			entry.Status = entity.DownloadOK
			entry.Data = data
		}
		metrics.AttachmentsTotal.WithLabelValues(entry.Status.String()).Inc()
		out.Entries = append(out.Entries, entry)
	}

	c.logger.Debug("attachments collected", zap.String("page_id", pageID), zap.Int("count", len(refs)))
	return out
}

func attachmentDownloadURL(webBase, pageID string, ref entity.AttachmentRef) string {
	if ref.DownloadPath != "" {
		if abs, err := utils.ToAbsoluteURL(webBase, ref.DownloadPath); err == nil {
			return abs
		}
	}
	return strings.TrimSuffix(webBase, "/") + "/download/attachments/" + pageID + "/" + url.PathEscape(ref.Title)
}
