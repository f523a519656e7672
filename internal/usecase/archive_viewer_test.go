package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/page-archive-service/internal/adapter/zipstore"
	"github.com/user/page-archive-service/internal/entity"
)

func saveTestArchive(t *testing.T, store *zipstore.Store, project, id string, names []string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	_, err := store.Save(context.Background(), project, id, &buf)
	require.NoError(t, err)
}

func TestArchiveViewer_Resolve(t *testing.T) {
	ctx := context.Background()
	store := zipstore.NewStore(t.TempDir(), nil)
	saveTestArchive(t, store, "perf", "arch1", []string{
		"Alpha.html",
		"index.html",
		"style.css",
		"report.pdf",
		"tool.exe",
		"attachments/9_report.docx",
		"attachments/10_notes",
		"sub/page.html",
	})
	viewer := NewArchiveViewer(store, nil)

	tests := []struct {
		name        string
		path        string
		wantData    string
		wantType    string
		wantCache   string
		wantDownld  bool
		wantMissing bool
	}{
		{name: "empty path serves index", path: "", wantData: "content of index.html", wantType: "text/html; charset=utf-8", wantCache: "no-cache"},
		{name: "index case insensitive", path: "INDEX.HTML", wantData: "content of index.html", wantType: "text/html; charset=utf-8", wantCache: "no-cache"},
		{name: "leading slash index", path: "/index.html", wantData: "content of index.html", wantCache: "no-cache", wantType: "text/html; charset=utf-8"},
		{name: "stylesheet", path: "style.css", wantData: "content of style.css", wantType: "text/css; charset=utf-8", wantCache: "private, max-age=3600"},
		{name: "nested html with backslash", path: `sub\page.html`, wantData: "content of sub/page.html", wantType: "text/html; charset=utf-8", wantCache: "private, max-age=3600"},
		{name: "pdf is downloaded", path: "report.pdf", wantData: "content of report.pdf", wantType: "application/pdf", wantCache: "private, max-age=3600", wantDownld: true},
		{name: "attachment keeps its type", path: "attachments/9_report.docx", wantData: "content of attachments/9_report.docx", wantType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", wantCache: "private, max-age=3600", wantDownld: true},
		{name: "attachment without extension", path: "attachments/10_notes", wantData: "content of attachments/10_notes", wantType: "application/octet-stream", wantCache: "private, max-age=3600"},
		{name: "disallowed extension", path: "tool.exe", wantMissing: true},
		{name: "traversal", path: "../perf/arch1.zip", wantMissing: true},
		{name: "traversal to existing entry", path: "sub/../index.html", wantMissing: true},
		{name: "attachment traversal", path: "attachments/../index.html", wantMissing: true},
		{name: "missing entry", path: "nope.html", wantMissing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := viewer.Resolve(ctx, "perf", "arch1", tt.path)
			if tt.wantMissing {
				assert.ErrorIs(t, err, entity.ErrNotFound)
				assert.Nil(t, file)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(file.Data))
			assert.Equal(t, tt.wantType, file.ContentType)
			assert.Equal(t, tt.wantCache, file.CacheControl)
			assert.Equal(t, tt.wantDownld, file.Download)
		})
	}
}

func TestArchiveViewer_LegacyIndexFallback(t *testing.T) {
	store := zipstore.NewStore(t.TempDir(), nil)
	saveTestArchive(t, store, "perf", "legacy", []string{"notes.txt", "Report.html", "Other.html"})

	file, err := NewArchiveViewer(store, nil).Resolve(context.Background(), "perf", "legacy", "index.html")
	require.NoError(t, err)
	assert.Equal(t, "content of Report.html", string(file.Data))
	assert.Equal(t, "Report.html", file.Name)
}

func TestArchiveViewer_MissingArchive(t *testing.T) {
	viewer := NewArchiveViewer(zipstore.NewStore(t.TempDir(), nil), nil)

	for _, c := range []struct{ project, id string }{
		{"perf", "missing"},
		{"..", "arch1"},
		{"perf", "../x"},
	} {
		_, err := viewer.Resolve(context.Background(), c.project, c.id, "")
		assert.ErrorIs(t, err, entity.ErrNotFound)
	}
}

func TestLookupMediaType(t *testing.T) {
	assert.Equal(t, "image/png", lookupMediaType("a/B.PNG").contentType)
	assert.True(t, lookupMediaType("x.XLSX").download)
	assert.Equal(t, "application/octet-stream", lookupMediaType("noext").contentType)
}
