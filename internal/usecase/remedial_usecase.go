package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/internal/repository"
	"github.com/user/page-archive-service/pkg/utils"
)

const (
	defaultTicket     = "TICKET-PLACEHOLDER"
	noticeTimeLayout  = "02.01.2006 15:04"
	missingAppBaseURL = "[application URL]"
)

// DeleteReport summarises a batch of delete calls.
type DeleteReport struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// ReplaceRequest describes the archive notice that replaces a page body.
type ReplaceRequest struct {
	SourceURL string
	PageTitle string
	ArchiveID string
	Project   string
	Ticket    string
}

// Remediator performs the destructive follow-up calls after an export.
type Remediator interface {
	DeleteChildPages(ctx context.Context, sourceURL string, ids []string) (DeleteReport, error)
	DeleteAttachments(ctx context.Context, sourceURL string) (DeleteReport, error)
	ReplaceContent(ctx context.Context, req ReplaceRequest) error
}

type remedialUseCase struct {
	content    repository.ContentRepository
	appBaseURL string
	logger     *zap.Logger
	now        func() time.Time
}

// NewRemediator creates a new instance of the remedial use case. appBaseURL is
// the public root the archive viewer is served under.
func NewRemediator(content repository.ContentRepository, appBaseURL string, logger *zap.Logger) Remediator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &remedialUseCase{
		content:    content,
		appBaseURL: appBaseURL,
		logger:     logger,
		now:        time.Now,
	}
}

// DeleteChildPages deletes each id independently. Without ids the current
// children of the source page are deleted.
func (uc *remedialUseCase) DeleteChildPages(ctx context.Context, sourceURL string, ids []string) (DeleteReport, error) {
	report := DeleteReport{Deleted: []string{}, Failed: []string{}}
	parsed, err := ParseSourceURL(sourceURL)
	if err != nil {
		return report, err
	}
	apiBase := parsed.APIBase()

	if len(ids) == 0 {
		root, err := uc.content.FetchPage(ctx, apiBase, parsed.PageID)
		if err != nil {
			return report, fmt.Errorf("list child pages: %w", err)
		}
		for _, c := range root.Children {
			ids = append(ids, c.ID)
		}
	}

	var errs []error
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := uc.deleteWithFallback(ctx, apiBase, id); err != nil {
			uc.logger.Error("failed to delete child page", zap.String("page_id", id), zap.Error(err))
			report.Failed = append(report.Failed, id)
			errs = append(errs, err)
			continue
		}
		uc.logger.Info("child page deleted", zap.String("page_id", id))
		report.Deleted = append(report.Deleted, id)
	}
	return report, errors.Join(errs...)
}

func (uc *remedialUseCase) deleteWithFallback(ctx context.Context, apiBase, id string) error {
	trashedErr := uc.content.DeleteContent(ctx, apiBase, id, true)
	if trashedErr == nil {
		return nil
	}
	uc.logger.Debug("trashed delete rejected, retrying plain delete", zap.String("page_id", id), zap.Error(trashedErr))
	err := uc.content.DeleteContent(ctx, apiBase, id, false)
	if err == nil {
		return nil
	}
	var remoteErr *entity.RemoteError
	if errors.As(err, &remoteErr) {
		return err
	}
	return &entity.RemoteError{Kind: entity.ErrRemoteOperationFailed, Op: "delete", PageID: id, Err: err}
}

// DeleteAttachments deletes every attachment of the source page. A failed
// delete is logged and does not stop the rest.
func (uc *remedialUseCase) DeleteAttachments(ctx context.Context, sourceURL string) (DeleteReport, error) {
	report := DeleteReport{Deleted: []string{}, Failed: []string{}}
	parsed, err := ParseSourceURL(sourceURL)
	if err != nil {
		return report, err
	}
	apiBase := parsed.APIBase()

	refs, err := uc.content.ListAttachments(ctx, apiBase, parsed.PageID)
	if err != nil {
		return report, fmt.Errorf("list attachments: %w", err)
	}
	for _, ref := range refs {
		if err := uc.content.DeleteContent(ctx, apiBase, ref.ID, false); err != nil {
			uc.logger.Warn("failed to delete attachment",
				zap.String("page_id", parsed.PageID),
				zap.String("attachment_id", ref.ID),
				zap.String("title", ref.Title),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, ref.ID)
			continue
		}
		report.Deleted = append(report.Deleted, ref.ID)
	}
	return report, nil
}

// ReplaceContent overwrites the source page body with a notice linking to the archive.
func (uc *remedialUseCase) ReplaceContent(ctx context.Context, req ReplaceRequest) error {
	parsed, err := ParseSourceURL(req.SourceURL)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.PageTitle) == "" {
		return fmt.Errorf("%w: page title is required", entity.ErrInvalidInput)
	}
	if !utils.IsSafePathComponent(req.Project) || !utils.IsSafePathComponent(req.ArchiveID) {
		return fmt.Errorf("%w: project and archive id are required", entity.ErrInvalidInput)
	}
	apiBase := parsed.APIBase()

	version, err := uc.content.FetchVersion(ctx, apiBase, parsed.PageID)
	if err != nil {
		return asOperationError(err, "fetch_version", parsed.PageID)
	}

	update := entity.PageUpdate{
		ID:      parsed.PageID,
		Title:   req.PageTitle,
		Body:    uc.archiveNotice(req),
		Version: version + 1,
	}
	if err := uc.content.UpdatePage(ctx, apiBase, update); err != nil {
		return asOperationError(err, "update_page", parsed.PageID)
	}
	uc.logger.Info("page content replaced",
		zap.String("page_id", parsed.PageID),
		zap.String("archive_id", req.ArchiveID),
		zap.Int("version", update.Version),
	)
	return nil
}

func (uc *remedialUseCase) archiveNotice(req ReplaceRequest) string {
	ticket := strings.TrimSpace(req.Ticket)
	if ticket == "" {
		ticket = defaultTicket
	}
	viewURL := ArchiveViewURL(uc.appBaseURL, req.Project, req.ArchiveID)
	link := html.EscapeString(viewURL)
	return fmt.Sprintf("<p>Report %s for ticket %s was archived on %s.</p>\n<p>View the archive: <a href=\"%s\">%s</a></p>\n",
		html.EscapeString(req.PageTitle),
		html.EscapeString(ticket),
		uc.now().Format(noticeTimeLayout),
		link, link,
	)
}

// ArchiveViewURL returns the public address of an archive.
func ArchiveViewURL(appBaseURL, project, archiveID string) string {
	base := strings.TrimSpace(appBaseURL)
	if base == "" {
		base = missingAppBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + project + "/" + archiveID
}

func asOperationError(err error, op, pageID string) error {
	if errors.Is(err, entity.ErrRemoteOperationFailed) {
		return err
	}
	return &entity.RemoteError{Kind: entity.ErrRemoteOperationFailed, Op: op, PageID: pageID, Err: err}
}
