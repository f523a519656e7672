package response

import "github.com/user/page-archive-service/internal/entity"

// ExportResponse is a DTO for a finished export, mirroring entity.ExportResult.
type ExportResponse struct {
	ArchiveID      string             `json:"archiveId"`
	Project        string             `json:"project"`
	PageTitle      string             `json:"pageTitle"`
	ChildPageNames []string           `json:"childPageNames"`
	ChildPageIDs   []string           `json:"childPageIds"`
	ChildInfos     []entity.ChildInfo `json:"childInfos"`
	ZipPath        string             `json:"zipPath"`
	Attachments    int                `json:"attachments"`
	ViewURL        string             `json:"viewUrl"`
}

// NewExportResponse converts an export result into its DTO.
func NewExportResponse(r *entity.ExportResult) ExportResponse {
	return ExportResponse{
		ArchiveID:      r.ArchiveID,
		Project:        r.Project,
		PageTitle:      r.PageTitle,
		ChildPageNames: r.ChildPageNames,
		ChildPageIDs:   r.ChildPageIDs(),
		ChildInfos:     r.ChildInfos,
		ZipPath:        r.ZipPath,
		Attachments:    r.Attachments,
		ViewURL:        "/" + r.Project + "/" + r.ArchiveID + "/",
	}
}

type DeleteResponse struct {
	Success bool     `json:"success"`
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
	Error   string   `json:"error,omitempty"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type SaveToDBResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	PK      int64  `json:"pk"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
