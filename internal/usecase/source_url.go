package usecase

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/user/page-archive-service/internal/entity"
)

type pageIDPattern struct {
	name string
	re   *regexp.Regexp
}

// pageIDPatterns are tried in order; the query parameter wins over path shapes.
var pageIDPatterns = []pageIDPattern{
	{name: "query", re: regexp.MustCompile(`[?&]pageId=(\d+)`)},
	{name: "pages", re: regexp.MustCompile(`/pages/(\d+)/`)},
	{name: "rest", re: regexp.MustCompile(`/rest/api/content/(\d+)`)},
	{name: "pages-tail", re: regexp.MustCompile(`/pages/(\d+)$`)},
}

// ParseSourceURL extracts the web base URL and the page id from a page URL.
func ParseSourceURL(raw string) (entity.ParsedSourceURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return entity.ParsedSourceURL{}, fmt.Errorf("%w: url must not be blank", entity.ErrInvalidInput)
	}

	pageID := ""
	for _, p := range pageIDPatterns {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			pageID = m[1]
			break
		}
	}
	if pageID == "" {
		return entity.ParsedSourceURL{}, fmt.Errorf("%w: no page id found in %q", entity.ErrInvalidInput, raw)
	}

	base, err := extractBaseURL(trimmed)
	if err != nil {
		return entity.ParsedSourceURL{}, err
	}
	return entity.ParsedSourceURL{BaseURL: base, PageID: pageID}, nil
}

func extractBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed url %q: %v", entity.ErrInvalidInput, raw, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: url %q needs a scheme and host", entity.ErrInvalidInput, raw)
	}

	path := u.Path
	switch {
	case strings.Contains(path, "/wiki/"):
		path = path[:strings.Index(path, "/wiki/")+len("/wiki")]
	case strings.Contains(path, "/display/") || strings.Contains(path, "/pages/"):
		if i := strings.Index(path[1:], "/"); i >= 0 {
			path = path[:i+1]
		} else {
			path = ""
		}
	default:
		path = ""
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Hostname())
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		b.WriteString(":")
		b.WriteString(port)
	}
	b.WriteString(strings.TrimSuffix(path, "/"))
	return b.String(), nil
}
