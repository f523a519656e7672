package zipstore

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/pkg/utils"
)

const zipExt = ".zip"

// Store implements repository.ArchiveRepository on the local filesystem.
// Archives live at <root>/<project>/<archiveId>.zip and are never rewritten.
type Store struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a store rooted at root.
func NewStore(root string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, logger: logger, now: time.Now}
}

// Path returns the file path of an archive.
func (s *Store) Path(project, archiveID string) string {
	return filepath.Join(s.root, project, archiveID+zipExt)
}

func (s *Store) validate(project, archiveID string) error {
	if !utils.IsSafePathComponent(project) {
		return fmt.Errorf("%w: invalid project name %q", entity.ErrInvalidInput, project)
	}
	if !utils.IsSafePathComponent(archiveID) {
		return fmt.Errorf("%w: invalid archive id %q", entity.ErrInvalidInput, archiveID)
	}
	return nil
}

// Write assembles the archive in a temporary file and renames it into place.
func (s *Store) Write(ctx context.Context, project, archiveID string, pages []entity.PageContent, attachments []entity.AttachmentEntry) (string, error) {
	modified := s.now()
	return s.writeAtomic(ctx, project, archiveID, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, p := range pages {
			if err := writeEntry(zw, p.ZipFilename, []byte(p.HTML), modified); err != nil {
				return err
			}
		}
		for _, a := range attachments {
			if !a.Included() {
				continue
			}
			if err := writeEntry(zw, a.ZipPath, a.Data, modified); err != nil {
				return err
			}
		}
		return zw.Close()
	})
}

// Save stores an already built zip under a new archive id.
func (s *Store) Save(ctx context.Context, project, archiveID string, r io.Reader) (string, error) {
	return s.writeAtomic(ctx, project, archiveID, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func (s *Store) writeAtomic(ctx context.Context, project, archiveID string, fill func(io.Writer) error) (string, error) {
	if err := s.validate(project, archiveID); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrArchiveWriteFailed, err)
	}

	dir := filepath.Join(s.root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create project directory: %w", entity.ErrArchiveWriteFailed, err)
	}
	finalPath := s.Path(project, archiveID)
	if _, err := os.Stat(finalPath); err == nil {
		return "", fmt.Errorf("%w: archive %s already exists", entity.ErrArchiveWriteFailed, archiveID)
	}

	tmp, err := os.CreateTemp(dir, "."+archiveID+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", entity.ErrArchiveWriteFailed, err)
	}
	tmpPath := tmp.Name()
	fail := func(step string, err error) (string, error) {
		tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("failed to remove temp archive", zap.String("path", tmpPath), zap.Error(rmErr))
		}
		return "", fmt.Errorf("%w: %s: %w", entity.ErrArchiveWriteFailed, step, err)
	}

	if err := fill(tmp); err != nil {
		return fail("write archive", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync archive", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close archive", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fail("rename archive", err)
	}

	s.logger.Debug("archive written", zap.String("path", finalPath))
	return finalPath, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the archive file is present.
func (s *Store) Exists(_ context.Context, project, archiveID string) (bool, error) {
	if err := s.validate(project, archiveID); err != nil {
		return false, nil
	}
	info, err := os.Stat(s.Path(project, archiveID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Remove deletes the archive file.
func (s *Store) Remove(_ context.Context, project, archiveID string) error {
	if err := s.validate(project, archiveID); err != nil {
		return err
	}
	if err := os.Remove(s.Path(project, archiveID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove archive %s/%s: %w", project, archiveID, err)
	}
	return nil
}

func (s *Store) open(project, archiveID string) (*zip.ReadCloser, error) {
	if err := s.validate(project, archiveID); err != nil {
		return nil, entity.ErrNotFound
	}
	zr, err := zip.OpenReader(s.Path(project, archiveID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("open archive %s/%s: %w", project, archiveID, err)
	}
	return zr, nil
}

func entryName(f *zip.File) string {
	return strings.TrimPrefix(strings.ReplaceAll(f.Name, `\`, "/"), "/")
}

// ReadIndex returns the entry named index.html, or the first html entry in
// archive order when there is none.
func (s *Store) ReadIndex(_ context.Context, project, archiveID string) (string, []byte, error) {
	zr, err := s.open(project, archiveID)
	if err != nil {
		return "", nil, err
	}
	defer zr.Close()

	var fallback *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := entryName(f)
		if name == entity.IndexFile {
			data, err := readFile(f)
			return name, data, err
		}
		if fallback == nil && strings.HasSuffix(strings.ToLower(name), ".html") {
			fallback = f
		}
	}
	if fallback == nil {
		return "", nil, entity.ErrNotFound
	}
	data, err := readFile(fallback)
	return entryName(fallback), data, err
}

// ReadEntry returns the first entry whose name matches name, ignoring a
// leading slash on either side.
func (s *Store) ReadEntry(_ context.Context, project, archiveID, name string) ([]byte, error) {
	want := strings.TrimPrefix(strings.ReplaceAll(name, `\`, "/"), "/")
	if want == "" {
		return nil, entity.ErrNotFound
	}

	zr, err := s.open(project, archiveID)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if entryName(f) == want {
			return readFile(f)
		}
	}
	return nil, entity.ErrNotFound
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	return data, nil
}

// List enumerates <root>/<project>/*.zip.
func (s *Store) List(ctx context.Context) ([]entity.ArchiveLocation, error) {
	projects, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive root: %w", err)
	}

	var out []entity.ArchiveLocation
	for _, p := range projects {
		if !p.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(s.root, p.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("failed to read project directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), zipExt) {
				continue
			}
			out = append(out, entity.ArchiveLocation{
				Project:   p.Name(),
				ArchiveID: f.Name()[:len(f.Name())-len(zipExt)],
				Path:      filepath.Join(dir, f.Name()),
			})
		}
	}
	return out, nil
}
