package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/repository"
	"github.com/user/page-archive-service/pkg/metrics"
	"github.com/user/page-archive-service/pkg/utils"
)

// ErrRecentlyExported is returned when the same page was exported into the
// same project within the cache TTL and the request is not forced.
var ErrRecentlyExported = errors.New("page was exported recently")

// ExportRequest asks for one page and its direct children to be archived.
type ExportRequest struct {
	SourceURL string
	Project   string
	Force     bool
}

// ExporterOptions tunes the export pipeline.
type ExporterOptions struct {
	ChildConcurrency int
	CacheTTL         time.Duration
	// RejectRecentDuplicates fails a non-forced export of a page that was
	// exported within CacheTTL. Needs a cache.
	RejectRecentDuplicates bool
}

// Exporter runs the export pipeline.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (*entity.ExportResult, error)
	FindResult(ctx context.Context, project, archiveID string) (*entity.ExportResult, error)
	Recent(ctx context.Context, n int) ([]entity.ExportResult, error)
}

const recentExportsKept = 50

type exportUseCase struct {
	content   repository.ContentRepository
	archives  repository.ArchiveRepository
	collector *AttachmentCollector
	cache     repository.ExportCacheRepository
	mirror    repository.ArchiveMirror
	catalog   repository.CatalogRepository
	opts      ExporterOptions
	logger    *zap.Logger
	newID     func() string
}

// ExporterDeps groups the collaborators of the exporter. Cache, Mirror and
// Catalog are optional.
type ExporterDeps struct {
	Content  repository.ContentRepository
	Archives repository.ArchiveRepository
	Cache    repository.ExportCacheRepository
	Mirror   repository.ArchiveMirror
	Catalog  repository.CatalogRepository
}

// NewExporter creates a new instance of the export use case.
func NewExporter(deps ExporterDeps, opts ExporterOptions, logger *zap.Logger) Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChildConcurrency <= 0 {
		opts.ChildConcurrency = 1
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 48 * time.Hour
	}
	return &exportUseCase{
		content:   deps.Content,
		archives:  deps.Archives,
		collector: NewAttachmentCollector(deps.Content, logger),
		cache:     deps.Cache,
		mirror:    deps.Mirror,
		catalog:   deps.Catalog,
		opts:      opts,
		logger:    logger,
		newID:     NewArchiveID,
	}
}

// NewArchiveID returns a 16 character hex identifier.
func NewArchiveID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Export fetches the root page, its children and all attachments, rewrites
// attachment links and writes the archive.
func (uc *exportUseCase) Export(ctx context.Context, req ExportRequest) (*entity.ExportResult, error) {
	start := time.Now()
	result, err := uc.export(ctx, req)
	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(exportStatus(err)).Inc()
		return nil, err
	}
	metrics.ExportsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (uc *exportUseCase) export(ctx context.Context, req ExportRequest) (*entity.ExportResult, error) {
	project := strings.TrimSpace(req.Project)
	if !utils.IsSafePathComponent(project) {
		return nil, fmt.Errorf("%w: invalid project name %q", entity.ErrInvalidInput, req.Project)
	}
	parsed, err := ParseSourceURL(req.SourceURL)
	if err != nil {
		return nil, err
	}

	sourceKey := project + "|" + parsed.BaseURL + "|" + parsed.PageID
	if uc.cache != nil && uc.opts.RejectRecentDuplicates {
		if req.Force {
			if err := uc.cache.ClearExported(ctx, sourceKey); err != nil {
				uc.logger.Warn("failed to clear export marker", zap.String("page_id", parsed.PageID), zap.Error(err))
			}
		} else {
			recent, err := uc.cache.IsRecentlyExported(ctx, sourceKey)
			if err != nil {
				uc.logger.Warn("failed to check export marker", zap.String("page_id", parsed.PageID), zap.Error(err))
			} else if recent {
				return nil, fmt.Errorf("%w: page %s in project %s", ErrRecentlyExported, parsed.PageID, project)
			}
		}
	}

	if uc.catalog != nil {
		if _, err := uc.catalog.GetOrCreateProject(ctx, project); err != nil {
			uc.logger.Warn("failed to register project", zap.String("project", project), zap.Error(err))
		}
	}

	apiBase := parsed.APIBase()
	uc.logger.Info("starting export",
		zap.String("project", project),
		zap.String("base_url", parsed.BaseURL),
		zap.String("page_id", parsed.PageID),
	)

	root, err := uc.content.FetchPage(ctx, apiBase, parsed.PageID)
	if err != nil {
		return nil, fmt.Errorf("fetch root page: %w", err)
	}

	attachments := uc.collector.Collect(ctx, entity.NewAttachmentSet(), apiBase, parsed.BaseURL, root.ID)

	children := uc.fetchChildren(ctx, apiBase, root.Children)
	for _, child := range children {
		attachments = uc.collector.Collect(ctx, attachments, apiBase, parsed.BaseURL, child.ID)
	}

	pages := make([]entity.PageContent, 0, len(children)+1)
	pages = append(pages, entity.PageContent{
		ZipFilename: entity.IndexFile,
		Title:       root.Title,
		HTML:        renderPageDocument(root.Title, RewriteAttachmentLinks(root.BodyHTML(), root.ID, attachments.Mapping)),
	})

	used := map[string]bool{strings.ToLower(entity.IndexFile): true}
	result := &entity.ExportResult{
		Project:        project,
		PageTitle:      root.Title,
		ChildPageNames: make([]string, 0, len(children)),
		ChildInfos:     make([]entity.ChildInfo, 0, len(children)),
	}
	for _, child := range children {
		name := childFilename(child, used)
		pages = append(pages, entity.PageContent{
			ZipFilename: name,
			Title:       child.Title,
			HTML:        renderPageDocument(child.Title, RewriteAttachmentLinks(child.BodyHTML(), child.ID, attachments.Mapping)),
		})
		result.ChildPageNames = append(result.ChildPageNames, child.Title)
		result.ChildInfos = append(result.ChildInfos, entity.ChildInfo{ID: child.ID, Title: child.Title})
	}
	for _, e := range attachments.Entries {
		if e.Included() {
			result.Attachments++
		}
	}

	result.ArchiveID = uc.newID()
	zipPath, err := uc.archives.Write(ctx, project, result.ArchiveID, pages, attachments.Entries)
	if err != nil {
		return nil, err
	}
	result.ZipPath = zipPath

	uc.afterWrite(ctx, sourceKey, result)

	uc.logger.Info("export finished",
		zap.String("project", project),
		zap.String("archive_id", result.ArchiveID),
		zap.Int("children", len(result.ChildInfos)),
		zap.Int("attachments", result.Attachments),
	)
	return result, nil
}

// fetchChildren fetches the referenced children, skipping failures. The
// returned pages keep the order of refs.
func (uc *exportUseCase) fetchChildren(ctx context.Context, apiBase string, refs []entity.ChildRef) []*entity.RemotePage {
	fetched := make([]*entity.RemotePage, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.ChildConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			page, err := uc.content.FetchPage(gctx, apiBase, ref.ID)
			if err != nil {
				uc.logger.Warn("skipping child page", zap.String("page_id", ref.ID), zap.String("title", ref.Title), zap.Error(err))
				return nil
			}
			if page.Title == "" {
				page.Title = ref.Title
			}
			fetched[i] = page
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*entity.RemotePage, 0, len(fetched))
	for _, p := range fetched {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (uc *exportUseCase) afterWrite(ctx context.Context, sourceKey string, result *entity.ExportResult) {
	if uc.cache != nil {
		if err := uc.cache.SaveResult(ctx, result, uc.opts.CacheTTL); err != nil {
			uc.logger.Warn("failed to cache export result", zap.String("archive_id", result.ArchiveID), zap.Error(err))
		}
		if err := uc.cache.MarkExported(ctx, sourceKey, uc.opts.CacheTTL); err != nil {
			uc.logger.Warn("failed to set export marker", zap.String("archive_id", result.ArchiveID), zap.Error(err))
		}
		if err := uc.cache.RecordRecent(ctx, result, recentExportsKept); err != nil {
			uc.logger.Warn("failed to record recent export", zap.String("archive_id", result.ArchiveID), zap.Error(err))
		}
	}
	if uc.mirror != nil {
		if err := uc.mirror.Mirror(ctx, result.Project, result.ArchiveID, result.ZipPath); err != nil {
			metrics.MirrorUploadsTotal.WithLabelValues("failure").Inc()
			uc.logger.Warn("failed to mirror archive", zap.String("archive_id", result.ArchiveID), zap.Error(err))
		} else {
			metrics.MirrorUploadsTotal.WithLabelValues("success").Inc()
		}
	}
}

// FindResult returns a cached export result.
func (uc *exportUseCase) FindResult(ctx context.Context, project, archiveID string) (*entity.ExportResult, error) {
	if uc.cache == nil {
		return nil, entity.ErrNotFound
	}
	return uc.cache.FindResult(ctx, project, archiveID)
}

// Recent lists the latest exports, newest first. Without a cache it is empty.
func (uc *exportUseCase) Recent(ctx context.Context, n int) ([]entity.ExportResult, error) {
	if uc.cache == nil {
		return []entity.ExportResult{}, nil
	}
	if n <= 0 || n > recentExportsKept {
		n = recentExportsKept
	}
	return uc.cache.ListRecent(ctx, int64(n))
}

func childFilename(child *entity.RemotePage, used map[string]bool) string {
	base := utils.SanitizeFilename(child.Title)
	name := base + ".html"
	if used[strings.ToLower(name)] {
		name = base + "_" + child.ID + ".html"
	}
	used[strings.ToLower(name)] = true
	return name
}

func renderPageDocument(title, body string) string {
	var b strings.Builder
	b.Grow(len(body) + len(title) + 128)
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

func exportStatus(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRecentlyExported):
		return "duplicate"
	case errors.Is(err, entity.ErrRemoteFetchFailed):
		return "remote_failed"
	case errors.Is(err, entity.ErrArchiveWriteFailed):
		return "write_failed"
	default:
		return "error"
	}
}
