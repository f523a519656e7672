package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrRemoteFetchFailed     = errors.New("remote fetch failed")
	ErrRemoteOperationFailed = errors.New("remote operation failed")
	ErrArchiveWriteFailed    = errors.New("archive write failed")
	ErrNotFound              = errors.New("not found")
)

// RemoteError carries the context of a failed call to the content API.
// It matches its Kind with errors.Is.
type RemoteError struct {
	Kind       error
	Op         string
	PageID     string
	URL        string
	StatusCode int
	Hint       string
	Err        error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		fmt.Fprintf(&b, ": %s", e.Op)
	}
	if e.PageID != "" {
		fmt.Fprintf(&b, " page %s", e.PageID)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " (%s)", e.URL)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, "; %s", e.Hint)
	}
	return b.String()
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// HintForStatus suggests a likely cause for a failed remote response.
func HintForStatus(status int) string {
	switch {
	case status == 401 || status == 403:
		return "check the API credentials (email and API token)"
	case status == 404:
		return "page not found; check that the base path (for example /wiki) is correct"
	case status >= 500:
		return "the remote service is unavailable or failing"
	default:
		return ""
	}
}
