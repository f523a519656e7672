package entity

import (
	"maps"
	"slices"
)

// IndexFile is the zip entry holding the root page.
const IndexFile = "index.html"

// AttachmentsPrefix is the zip directory holding attachment bytes.
const AttachmentsPrefix = "attachments/"

// PageContent is one HTML document destined for the archive.
type PageContent struct {
	ZipFilename string
	Title       string
	HTML        string
}

// DownloadStatus distinguishes an empty attachment from a failed download.
type DownloadStatus int

const (
	DownloadOK DownloadStatus = iota
	DownloadEmpty
	DownloadFailed
)

func (s DownloadStatus) String() string {
	switch s {
	case DownloadOK:
		return "ok"
	case DownloadEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// AttachmentEntry holds the downloaded bytes for one attachment.
type AttachmentEntry struct {
	ZipPath string
	Data    []byte
	Status  DownloadStatus
}

// Included reports whether the entry is written to the archive.
func (e AttachmentEntry) Included() bool {
	return e.Status == DownloadOK && len(e.Data) > 0
}

// AttachmentMapping maps "pageId/filename" to a zip-relative path.
type AttachmentMapping map[string]string

func mappingKey(pageID, name string) string {
	return pageID + "/" + name
}

// Add registers name for pageID. The first registration wins.
func (m AttachmentMapping) Add(pageID, name, zipPath string) {
	if name == "" {
		return
	}
	k := mappingKey(pageID, name)
	if _, ok := m[k]; !ok {
		m[k] = zipPath
	}
}

// Lookup returns the zip path registered for pageID and name.
func (m AttachmentMapping) Lookup(pageID, name string) (string, bool) {
	p, ok := m[mappingKey(pageID, name)]
	return p, ok
}

// AttachmentSet accumulates the mapping and entries over one export.
type AttachmentSet struct {
	Mapping AttachmentMapping
	Entries []AttachmentEntry
}

// NewAttachmentSet returns an empty set.
func NewAttachmentSet() AttachmentSet {
	return AttachmentSet{Mapping: AttachmentMapping{}}
}

// Clone returns a copy that shares no mutable state with s.
func (s AttachmentSet) Clone() AttachmentSet {
	m := maps.Clone(s.Mapping)
	if m == nil {
		m = AttachmentMapping{}
	}
	return AttachmentSet{Mapping: m, Entries: slices.Clone(s.Entries)}
}

// ChildInfo identifies an exported child page.
type ChildInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ExportResult describes an archive produced by one export.
type ExportResult struct {
	ArchiveID      string      `json:"archiveId"`
	Project        string      `json:"project"`
	PageTitle      string      `json:"pageTitle"`
	ChildPageNames []string    `json:"childPageNames"`
	ChildInfos     []ChildInfo `json:"childInfos"`
	ZipPath        string      `json:"zipPath"`
	Attachments    int         `json:"attachments"`
}

// ChildPageIDs returns the ids of the exported children in order.
func (r *ExportResult) ChildPageIDs() []string {
	ids := make([]string, 0, len(r.ChildInfos))
	for _, c := range r.ChildInfos {
		ids = append(ids, c.ID)
	}
	return ids
}

// ArchiveFile is one entry resolved from an archive for serving.
type ArchiveFile struct {
	Name         string
	Data         []byte
	ContentType  string
	CacheControl string
	Download     bool
}

// ArchiveLocation addresses an archive file on disk.
type ArchiveLocation struct {
	Project   string
	ArchiveID string
	Path      string
}
