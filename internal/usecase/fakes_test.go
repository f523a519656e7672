package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/page-archive-service/internal/entity"
)

type fakeContent struct {
	mu          sync.Mutex
	pages       map[string]*entity.RemotePage
	attachments map[string][]entity.AttachmentRef
	listErr     map[string]error
	downloads   map[string][]byte
	version     int
	versionErr  error
	updateErr   error
	updates     []entity.PageUpdate
	deleteErr   func(id string, trashed bool) error
	deletes     []string
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		pages:       map[string]*entity.RemotePage{},
		attachments: map[string][]entity.AttachmentRef{},
		listErr:     map[string]error{},
		downloads:   map[string][]byte{},
	}
}

func remoteErr(kind error, op, id string) error {
	return &entity.RemoteError{Kind: kind, Op: op, PageID: id, StatusCode: 500, Err: fmt.Errorf("boom")}
}

func (f *fakeContent) FetchPage(_ context.Context, _ string, pageID string) (*entity.RemotePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[pageID]
	if !ok {
		return nil, remoteErr(entity.ErrRemoteFetchFailed, "fetch_page", pageID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeContent) ListAttachments(_ context.Context, _ string, pageID string) ([]entity.AttachmentRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[pageID]; err != nil {
		return nil, err
	}
	return f.attachments[pageID], nil
}

func (f *fakeContent) Download(_ context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.downloads[rawURL]
	if !ok {
		return nil, remoteErr(entity.ErrRemoteFetchFailed, "download", "")
	}
	return data, nil
}

func (f *fakeContent) FetchVersion(_ context.Context, _ string, pageID string) (int, error) {
	if f.versionErr != nil {
		return 0, f.versionErr
	}
	return f.version, nil
}

func (f *fakeContent) UpdatePage(_ context.Context, _ string, update entity.PageUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	return f.updateErr
}

func (f *fakeContent) DeleteContent(_ context.Context, _ string, id string, trashed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := id
	if trashed {
		call += "?trashed"
	}
	f.deletes = append(f.deletes, call)
	if f.deleteErr != nil {
		return f.deleteErr(id, trashed)
	}
	return nil
}

type fakeCache struct {
	mu       sync.Mutex
	results  map[string]*entity.ExportResult
	exported map[string]bool
	recent   []entity.ExportResult
	checkErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{results: map[string]*entity.ExportResult{}, exported: map[string]bool{}}
}

func (c *fakeCache) SaveResult(_ context.Context, result *entity.ExportResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *result
	c.results[result.Project+"/"+result.ArchiveID] = &cp
	return nil
}

func (c *fakeCache) FindResult(_ context.Context, project, archiveID string) (*entity.ExportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[project+"/"+archiveID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return r, nil
}

func (c *fakeCache) MarkExported(_ context.Context, key string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exported[key] = true
	return nil
}

func (c *fakeCache) IsRecentlyExported(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checkErr != nil {
		return false, c.checkErr
	}
	return c.exported[key], nil
}

func (c *fakeCache) ClearExported(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exported, key)
	return nil
}

func (c *fakeCache) RecordRecent(_ context.Context, result *entity.ExportResult, keep int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent = append([]entity.ExportResult{*result}, c.recent...)
	if int64(len(c.recent)) > keep {
		c.recent = c.recent[:keep]
	}
	return nil
}

func (c *fakeCache) ListRecent(_ context.Context, n int64) ([]entity.ExportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int64(len(c.recent)) < n {
		n = int64(len(c.recent))
	}
	return append([]entity.ExportResult(nil), c.recent[:n]...), nil
}

type fakeMirror struct {
	mu      sync.Mutex
	objects []string
	err     error
}

func (m *fakeMirror) Mirror(_ context.Context, project, archiveID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.objects = append(m.objects, project+"/"+archiveID)
	return nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	projects map[string]int64
	reports  map[string]*entity.ArchivedReport
	saveErr  error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{projects: map[string]int64{}, reports: map[string]*entity.ArchivedReport{}}
}

func (c *fakeCatalog) GetOrCreateProject(_ context.Context, name string) (*entity.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.projects[name]
	if !ok {
		id = int64(len(c.projects) + 1)
		c.projects[name] = id
	}
	return &entity.Project{ID: id, Name: name}, nil
}

func (c *fakeCatalog) ListProjectNames(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.projects))
	for n := range c.projects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (c *fakeCatalog) SaveReport(_ context.Context, report *entity.ArchivedReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	cp := *report
	c.reports[report.Project+"/"+report.ArchiveID] = &cp
	return nil
}

func (c *fakeCatalog) FindReport(_ context.Context, project, archiveID string) (*entity.ArchivedReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[project+"/"+archiveID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return r, nil
}

func (c *fakeCatalog) SearchReports(_ context.Context, params entity.SearchParams) (*entity.ReportPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var items []entity.ArchivedReport
	for _, r := range c.reports {
		if params.Project != "" && r.Project != params.Project {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(params.Search)) {
			continue
		}
		items = append(items, *r)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return &entity.ReportPage{Items: items, Total: int64(len(items)), Page: params.Page, Size: params.Size}, nil
}
