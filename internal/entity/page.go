package entity

// ParsedSourceURL is the normalized form of a user supplied page URL.
// BaseURL never ends with a slash and PageID is all digits.
type ParsedSourceURL struct {
	BaseURL string
	PageID  string
}

// APIBase returns the content REST endpoint root for the parsed URL.
func (p ParsedSourceURL) APIBase() string {
	return p.BaseURL + "/rest/api/content"
}

// Body representations offered by the remote content API.
const (
	RepresentationExportView = "export_view"
	RepresentationView       = "view"
	RepresentationStorage    = "storage"
)

// RepresentationOrder is the precedence used when picking displayable HTML.
var RepresentationOrder = []string{
	RepresentationExportView,
	RepresentationView,
	RepresentationStorage,
}

// NoContentPlaceholder replaces a page body when no representation is present.
const NoContentPlaceholder = "<p>No content</p>"

// ChildRef points at a direct child page.
type ChildRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RemotePage is a page as returned by the remote content API.
type RemotePage struct {
	ID       string
	Title    string
	Version  int
	Bodies   map[string]string // keyed by representation name
	Children []ChildRef
}

// BodyHTML returns the first non-empty representation in RepresentationOrder,
// or NoContentPlaceholder.
func (p *RemotePage) BodyHTML() string {
	if p == nil {
		return NoContentPlaceholder
	}
	for _, name := range RepresentationOrder {
		if v := p.Bodies[name]; v != "" {
			return v
		}
	}
	return NoContentPlaceholder
}

// AttachmentRef describes one attachment listed on a page.
type AttachmentRef struct {
	ID           string
	Title        string
	DownloadPath string
}

// PageUpdate is the payload used to overwrite a page body.
type PageUpdate struct {
	ID      string
	Title   string
	Body    string // storage representation
	Version int
}
