package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/page-archive-service/internal/entity"
)

func TestDeleteChildPages_ContinuesAfterFailure(t *testing.T) {
	content := newFakeContent()
	content.deleteErr = func(id string, trashed bool) error {
		switch {
		case id == "2":
			return remoteErr(entity.ErrRemoteOperationFailed, "delete", id)
		case id == "4" && trashed:
			return remoteErr(entity.ErrRemoteOperationFailed, "delete_trashed", id)
		}
		return nil
	}
	uc := NewRemediator(content, "", nil)

	report, err := uc.DeleteChildPages(context.Background(), testSourceURL, []string{"1", "2", "3", "4"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrRemoteOperationFailed)

	var remote *entity.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "2", remote.PageID)

	assert.Equal(t, []string{"1", "3", "4"}, report.Deleted)
	assert.Equal(t, []string{"2"}, report.Failed)
	assert.Equal(t, []string{"1?trashed", "2?trashed", "2", "3?trashed", "4?trashed", "4"}, content.deletes)
}

func TestDeleteChildPages_DefaultsToCurrentChildren(t *testing.T) {
	content := newFakeContent()
	content.pages["100"] = &entity.RemotePage{ID: "100", Children: []entity.ChildRef{{ID: "7"}, {ID: "8"}}}
	uc := NewRemediator(content, "", nil)

	report, err := uc.DeleteChildPages(context.Background(), testSourceURL, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, report.Deleted)
	assert.Empty(t, report.Failed)
}

func TestDeleteChildPages_RootFetchFails(t *testing.T) {
	uc := NewRemediator(newFakeContent(), "", nil)
	_, err := uc.DeleteChildPages(context.Background(), testSourceURL, nil)
	assert.ErrorIs(t, err, entity.ErrRemoteFetchFailed)

	_, err = uc.DeleteChildPages(context.Background(), "not a url", []string{"1"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestDeleteAttachments(t *testing.T) {
	content := newFakeContent()
	content.attachments["100"] = []entity.AttachmentRef{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}
	content.deleteErr = func(id string, _ bool) error {
		if id == "a2" {
			return errors.New("forbidden")
		}
		return nil
	}
	uc := NewRemediator(content, "", nil)

	report, err := uc.DeleteAttachments(context.Background(), testSourceURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a3"}, report.Deleted)
	assert.Equal(t, []string{"a2"}, report.Failed)
	assert.Equal(t, []string{"a1", "a2", "a3"}, content.deletes)
}

func TestDeleteAttachments_ListFailure(t *testing.T) {
	content := newFakeContent()
	content.listErr["100"] = remoteErr(entity.ErrRemoteFetchFailed, "list_attachments", "100")
	uc := NewRemediator(content, "", nil)

	_, err := uc.DeleteAttachments(context.Background(), testSourceURL)
	assert.ErrorIs(t, err, entity.ErrRemoteFetchFailed)
}

func TestReplaceContent(t *testing.T) {
	content := newFakeContent()
	content.version = 4
	uc := NewRemediator(content, "https://archive.example.com/", nil).(*remedialUseCase)
	uc.now = func() time.Time { return time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC) }

	err := uc.ReplaceContent(context.Background(), ReplaceRequest{
		SourceURL: testSourceURL,
		PageTitle: "Load <test>",
		ArchiveID: "abc",
		Project:   "perf",
	})
	require.NoError(t, err)

	require.Len(t, content.updates, 1)
	update := content.updates[0]
	assert.Equal(t, "100", update.ID)
	assert.Equal(t, "Load <test>", update.Title)
	assert.Equal(t, 5, update.Version)
	assert.Contains(t, update.Body, "Load &lt;test&gt;")
	assert.Contains(t, update.Body, "TICKET-PLACEHOLDER")
	assert.Contains(t, update.Body, "05.03.2024 09:07")
	assert.Contains(t, update.Body, `<a href="https://archive.example.com/perf/abc">https://archive.example.com/perf/abc</a>`)
}

func TestReplaceContent_Failures(t *testing.T) {
	content := newFakeContent()
	content.versionErr = errors.New("timeout")
	uc := NewRemediator(content, "", nil)

	req := ReplaceRequest{SourceURL: testSourceURL, PageTitle: "T", ArchiveID: "abc", Project: "perf", Ticket: "PERF-9"}
	err := uc.ReplaceContent(context.Background(), req)
	assert.ErrorIs(t, err, entity.ErrRemoteOperationFailed)
	assert.Empty(t, content.updates)

	content.versionErr = nil
	content.version = 1
	content.updateErr = remoteErr(entity.ErrRemoteOperationFailed, "update_page", "100")
	err = uc.ReplaceContent(context.Background(), req)
	assert.ErrorIs(t, err, entity.ErrRemoteOperationFailed)
	require.Len(t, content.updates, 1)
	assert.Contains(t, content.updates[0].Body, "PERF-9")
	assert.Contains(t, content.updates[0].Body, "[application URL]/perf/abc")

	err = uc.ReplaceContent(context.Background(), ReplaceRequest{SourceURL: testSourceURL, ArchiveID: "abc", Project: "perf"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestArchiveViewURL(t *testing.T) {
	assert.Equal(t, "https://a.example.com/p/id", ArchiveViewURL("https://a.example.com", "p", "id"))
	assert.Equal(t, "https://a.example.com/p/id", ArchiveViewURL("https://a.example.com/", "p", "id"))
	assert.Equal(t, "[application URL]/p/id", ArchiveViewURL(" ", "p", "id"))
}
