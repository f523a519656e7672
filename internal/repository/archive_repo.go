package repository

import (
	"context"
	"io"

	"github.com/user/page-archive-service/internal/entity"
)

// ArchiveRepository defines the contract for write-once archive files.
type ArchiveRepository interface {
	// Write assembles a new archive and returns its path. Nothing is left behind on failure.
	Write(ctx context.Context, project, archiveID string, pages []entity.PageContent, attachments []entity.AttachmentEntry) (string, error)
	// Save stores an already built zip under a new archive id.
	Save(ctx context.Context, project, archiveID string, r io.Reader) (string, error)
	// Exists reports whether the archive file is present.
	Exists(ctx context.Context, project, archiveID string) (bool, error)
	// ReadIndex returns the root document, falling back to the first html entry.
	ReadIndex(ctx context.Context, project, archiveID string) (string, []byte, error)
	// ReadEntry returns the bytes of the entry with the given name.
	ReadEntry(ctx context.Context, project, archiveID, name string) ([]byte, error)
	// Remove deletes the archive file. A missing archive is not an error.
	Remove(ctx context.Context, project, archiveID string) error
	// List enumerates every archive on disk.
	List(ctx context.Context) ([]entity.ArchiveLocation, error)
}

// ArchiveMirror copies finished archives to secondary storage.
type ArchiveMirror interface {
	Mirror(ctx context.Context, project, archiveID, zipPath string) error
}
