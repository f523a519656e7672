package entity

import "time"

// Project groups archived reports.
type Project struct {
	ID   int64
	Name string
}

// ArchivedReport mirrors the `archived_reports` PostgreSQL table schema.
type ArchivedReport struct {
	PK        int64          `json:"pk"`
	ArchiveID string         `json:"id"`
	Name      string         `json:"name"`
	Project   string         `json:"project"`
	JiraKey   string         `json:"jiraKey,omitempty"`
	Digrep    string         `json:"digrep,omitempty"`
	JSONInfo  map[string]any `json:"jsonInfo,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SearchParams filters the catalog listing.
type SearchParams struct {
	Project string
	Search  string
	Page    int // zero based
	Size    int
}

// ReportPage is one page of catalog search results.
type ReportPage struct {
	Items      []ArchivedReport `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalPages int              `json:"totalPages"`
}

// SyncResult summarises a filesystem to catalog reconciliation.
type SyncResult struct {
	Added  int      `json:"added"`
	Total  int      `json:"total"`
	Errors []string `json:"errors"`
}
