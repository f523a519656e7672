package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/repository"
	"github.com/user/page-archive-service/pkg/utils"
)

const (
	maxDigrepLength = 100
	defaultPageSize = 20
	maxPageSize     = 100
)

// SaveReportRequest registers an exported archive in the catalog.
type SaveReportRequest struct {
	ArchiveID      string
	Name           string
	Project        string
	ChildPageNames []string
	JiraKey        string
	Digrep         string
}

// UploadResult describes a stored uploaded archive.
type UploadResult struct {
	ArchiveID string `json:"archiveId"`
	PageTitle string `json:"pageTitle"`
	Project   string `json:"project"`
}

// Catalog manages archive metadata.
type Catalog interface {
	SaveReport(ctx context.Context, req SaveReportRequest) (*entity.ArchivedReport, error)
	Search(ctx context.Context, params entity.SearchParams) (*entity.ReportPage, error)
	Projects(ctx context.Context) ([]string, error)
	SyncFromFilesystem(ctx context.Context) (*entity.SyncResult, error)
	Upload(ctx context.Context, project, filename string, r io.Reader) (*UploadResult, error)
}

type catalogUseCase struct {
	catalog  repository.CatalogRepository
	archives repository.ArchiveRepository
	logger   *zap.Logger
	newID    func() string
}

// NewCatalog creates a new instance of the catalog use case.
func NewCatalog(catalog repository.CatalogRepository, archives repository.ArchiveRepository, logger *zap.Logger) Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogUseCase{
		catalog:  catalog,
		archives: archives,
		logger:   logger,
		newID:    NewArchiveID,
	}
}

func (uc *catalogUseCase) SaveReport(ctx context.Context, req SaveReportRequest) (*entity.ArchivedReport, error) {
	if strings.TrimSpace(req.ArchiveID) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Project) == "" {
		return nil, fmt.Errorf("%w: archiveId, name and project are required", entity.ErrInvalidInput)
	}
	if !utils.IsSafePathComponent(req.Project) {
		return nil, fmt.Errorf("%w: invalid project name %q", entity.ErrInvalidInput, req.Project)
	}

	if _, err := uc.catalog.GetOrCreateProject(ctx, req.Project); err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", req.Project, err)
	}

	report := &entity.ArchivedReport{
		ArchiveID: req.ArchiveID,
		Name:      req.Name,
		Project:   req.Project,
		JiraKey:   strings.TrimSpace(req.JiraKey),
		Digrep:    truncateRunes(req.Digrep, maxDigrepLength),
	}
	if len(req.ChildPageNames) > 0 {
		report.JSONInfo = map[string]any{"childPages": req.ChildPageNames}
	}
	if err := uc.catalog.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report %s: %w", req.ArchiveID, err)
	}
	uc.logger.Info("report saved", zap.String("project", req.Project), zap.String("archive_id", req.ArchiveID))
	return report, nil
}

func (uc *catalogUseCase) Search(ctx context.Context, params entity.SearchParams) (*entity.ReportPage, error) {
	params.Project = strings.TrimSpace(params.Project)
	params.Search = strings.TrimSpace(params.Search)
	if params.Page < 0 {
		params.Page = 0
	}
	if params.Size <= 0 {
		params.Size = defaultPageSize
	}
	if params.Size > maxPageSize {
		params.Size = maxPageSize
	}
	return uc.catalog.SearchReports(ctx, params)
}

func (uc *catalogUseCase) Projects(ctx context.Context) ([]string, error) {
	return uc.catalog.ListProjectNames(ctx)
}

// SyncFromFilesystem registers archives found on disk that the catalog does not know.
func (uc *catalogUseCase) SyncFromFilesystem(ctx context.Context) (*entity.SyncResult, error) {
	locations, err := uc.archives.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}

	result := &entity.SyncResult{Errors: []string{}}
	for _, loc := range locations {
		result.Total++
		if _, err := uc.catalog.GetOrCreateProject(ctx, loc.Project); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", loc.Project, loc.ArchiveID, err))
			continue
		}
		_, err := uc.catalog.FindReport(ctx, loc.Project, loc.ArchiveID)
		if err == nil {
			continue
		}
		if !errors.Is(err, entity.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", loc.Project, loc.ArchiveID, err))
			continue
		}

		name := uc.archiveTitle(ctx, loc.Project, loc.ArchiveID)
		if name == "" {
			name = loc.ArchiveID + ".zip"
		}
		report := &entity.ArchivedReport{ArchiveID: loc.ArchiveID, Name: name, Project: loc.Project}
		if err := uc.catalog.SaveReport(ctx, report); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", loc.Project, loc.ArchiveID, err))
			continue
		}
		result.Added++
	}

	uc.logger.Info("catalog sync finished",
		zap.Int("added", result.Added),
		zap.Int("total", result.Total),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// Upload stores an externally built zip under a new archive id.
func (uc *catalogUseCase) Upload(ctx context.Context, project, filename string, r io.Reader) (*UploadResult, error) {
	project = strings.TrimSpace(project)
	if !utils.IsSafePathComponent(project) {
		return nil, fmt.Errorf("%w: invalid project name %q", entity.ErrInvalidInput, project)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".zip") {
		return nil, fmt.Errorf("%w: file must be a .zip archive", entity.ErrInvalidInput)
	}

	if _, err := uc.catalog.GetOrCreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", project, err)
	}

	archiveID := uc.newID()
	if _, err := uc.archives.Save(ctx, project, archiveID, r); err != nil {
		return nil, err
	}

	_, index, err := uc.archives.ReadIndex(ctx, project, archiveID)
	if err != nil {
		if rmErr := uc.archives.Remove(ctx, project, archiveID); rmErr != nil {
			uc.logger.Warn("failed to remove rejected upload", zap.String("archive_id", archiveID), zap.Error(rmErr))
		}
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("%w: archive has no html document", entity.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: not a readable zip archive: %v", entity.ErrInvalidInput, err)
	}

	title := documentTitle(index)
	if title == "" {
		title = filename[:len(filename)-len(".zip")]
	}
	uc.logger.Info("archive uploaded", zap.String("project", project), zap.String("archive_id", archiveID))
	return &UploadResult{ArchiveID: archiveID, PageTitle: title, Project: project}, nil
}

// archiveTitle returns the <title> of the archive's root document, or "".
func (uc *catalogUseCase) archiveTitle(ctx context.Context, project, archiveID string) string {
	_, data, err := uc.archives.ReadIndex(ctx, project, archiveID)
	if err != nil {
		uc.logger.Debug("no index document", zap.String("archive_id", archiveID), zap.Error(err))
		return ""
	}
	return documentTitle(data)
}

func documentTitle(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
