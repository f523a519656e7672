package request

// ExportRequest starts an export of a page and its direct children.
type ExportRequest struct {
	ConfluenceURL string `json:"confluenceUrl"`
	Project       string `json:"project"`
	Force         bool   `json:"force"`
}

// DeleteChildrenRequest deletes child pages. Without ids the current children are deleted.
type DeleteChildrenRequest struct {
	ConfluenceURL string   `json:"confluenceUrl"`
	ChildPageIDs  []string `json:"childPageIds"`
}

type DeleteAttachmentsRequest struct {
	ConfluenceURL string `json:"confluenceUrl"`
}

type ReplaceContentRequest struct {
	ConfluenceURL string `json:"confluenceUrl"`
	PageTitle     string `json:"pageTitle"`
	ArchiveID     string `json:"archiveId"`
	Project       string `json:"project"`
	JiraKey       string `json:"jiraKey"`
}

type SaveToDBRequest struct {
	ArchiveID      string   `json:"archiveId"`
	Name           string   `json:"name"`
	Project        string   `json:"project"`
	ChildPageNames []string `json:"childPageNames"`
	JiraKey        string   `json:"jiraKey"`
	Digrep         string   `json:"digrep"`
}
