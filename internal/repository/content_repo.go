package repository

import (
	"context"

	"github.com/user/page-archive-service/internal/entity"
)

// ContentRepository defines the contract for the remote wiki content API.
// Failed calls return *entity.RemoteError.
type ContentRepository interface {
	// FetchPage retrieves title, body representations and direct children in one call.
	FetchPage(ctx context.Context, apiBase, pageID string) (*entity.RemotePage, error)
	// ListAttachments lists the attachments of a page.
	ListAttachments(ctx context.Context, apiBase, pageID string) ([]entity.AttachmentRef, error)
	// Download returns the raw bytes behind an absolute URL.
	Download(ctx context.Context, rawURL string) ([]byte, error)
	// FetchVersion returns the current version number of a page.
	FetchVersion(ctx context.Context, apiBase, pageID string) (int, error)
	// UpdatePage replaces the storage body of a page.
	UpdatePage(ctx context.Context, apiBase string, update entity.PageUpdate) error
	// DeleteContent deletes a page or attachment, optionally with the trashed status hint.
	DeleteContent(ctx context.Context, apiBase, id string, trashed bool) error
}
