package usecase

import (
	"context"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/repository"
	"github.com/user/page-archive-service/pkg/metrics"
	"github.com/user/page-archive-service/pkg/utils"
)

const (
	cacheControlIndex = "no-cache"
	cacheControlEntry = "private, max-age=3600"
	defaultMediaType  = "application/octet-stream"
)

type mediaType struct {
	contentType string
	download    bool
}

// servableTypes is both the extension allow-list and the content type table.
var servableTypes = map[string]mediaType{
	"html":  {contentType: "text/html; charset=utf-8"},
	"htm":   {contentType: "text/html; charset=utf-8"},
	"css":   {contentType: "text/css; charset=utf-8"},
	"js":    {contentType: "application/javascript"},
	"json":  {contentType: "application/json"},
	"xml":   {contentType: "application/xml"},
	"txt":   {contentType: "text/plain; charset=utf-8"},
	"log":   {contentType: "text/plain; charset=utf-8"},
	"yml":   {contentType: "text/yaml"},
	"yaml":  {contentType: "text/yaml"},
	"png":   {contentType: "image/png"},
	"jpg":   {contentType: "image/jpeg"},
	"jpeg":  {contentType: "image/jpeg"},
	"gif":   {contentType: "image/gif"},
	"svg":   {contentType: "image/svg+xml"},
	"ico":   {contentType: "image/x-icon"},
	"webp":  {contentType: "image/webp"},
	"woff":  {contentType: "font/woff"},
	"woff2": {contentType: "font/woff2"},
	"ttf":   {contentType: "font/ttf"},
	"eot":   {contentType: "application/vnd.ms-fontobject"},
	"otf":   {contentType: "font/otf"},
	"pdf":   {contentType: "application/pdf", download: true},
	"doc":   {contentType: "application/msword", download: true},
	"docx":  {contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", download: true},
	"xls":   {contentType: "application/vnd.ms-excel", download: true},
	"xlsx":  {contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", download: true},
	"ppt":   {contentType: "application/vnd.ms-powerpoint", download: true},
	"pptx":  {contentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation", download: true},
	"csv":   {contentType: "text/csv", download: true},
	"zip":   {contentType: "application/zip", download: true},
	"rar":   {contentType: "application/vnd.rar", download: true},
	"7z":    {contentType: "application/x-7z-compressed", download: true},
}

// ArchiveViewer resolves requests for files inside stored archives.
type ArchiveViewer interface {
	// Resolve returns entity.ErrNotFound for a missing archive, a missing entry,
	// a disallowed extension and a traversal attempt alike.
	Resolve(ctx context.Context, project, archiveID, relPath string) (*entity.ArchiveFile, error)
}

type archiveViewer struct {
	archives repository.ArchiveRepository
	logger   *zap.Logger
}

// NewArchiveViewer creates a new archive viewer.
func NewArchiveViewer(archives repository.ArchiveRepository, logger *zap.Logger) ArchiveViewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &archiveViewer{archives: archives, logger: logger}
}

func (v *archiveViewer) Resolve(ctx context.Context, project, archiveID, relPath string) (*entity.ArchiveFile, error) {
	file, err := v.resolve(ctx, project, archiveID, relPath)
	switch {
	case err == nil:
		metrics.ArchiveReadsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, entity.ErrNotFound):
		metrics.ArchiveReadsTotal.WithLabelValues("not_found").Inc()
	default:
		metrics.ArchiveReadsTotal.WithLabelValues("error").Inc()
		v.logger.Error("failed to read archive",
			zap.String("project", project),
			zap.String("archive_id", archiveID),
			zap.String("path", relPath),
			zap.Error(err),
		)
	}
	return file, err
}

func (v *archiveViewer) resolve(ctx context.Context, project, archiveID, relPath string) (*entity.ArchiveFile, error) {
	if !utils.IsSafePathComponent(project) || !utils.IsSafePathComponent(archiveID) {
		return nil, entity.ErrNotFound
	}
	exists, err := v.archives.Exists(ctx, project, archiveID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, entity.ErrNotFound
	}

	normalized := strings.TrimSpace(strings.ReplaceAll(relPath, `\`, "/"))
	normalized = strings.TrimPrefix(normalized, "/")

	if normalized == "" || strings.EqualFold(normalized, entity.IndexFile) {
		name, data, err := v.archives.ReadIndex(ctx, project, archiveID)
		if err != nil {
			return nil, err
		}
		mt := lookupMediaType(name)
		return &entity.ArchiveFile{
			Name:         name,
			Data:         data,
			ContentType:  mt.contentType,
			CacheControl: cacheControlIndex,
		}, nil
	}

	if strings.Contains(normalized, "..") {
		return nil, entity.ErrNotFound
	}
	if !strings.HasPrefix(normalized, entity.AttachmentsPrefix) {
		if _, ok := servableTypes[extension(normalized)]; !ok {
			return nil, entity.ErrNotFound
		}
	}

	data, err := v.archives.ReadEntry(ctx, project, archiveID, normalized)
	if err != nil {
		return nil, err
	}
	mt := lookupMediaType(normalized)
	return &entity.ArchiveFile{
		Name:         normalized,
		Data:         data,
		ContentType:  mt.contentType,
		CacheControl: cacheControlEntry,
		Download:     mt.download,
	}, nil
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func lookupMediaType(name string) mediaType {
	if mt, ok := servableTypes[extension(name)]; ok {
		return mt
	}
	return mediaType{contentType: defaultMediaType}
}
