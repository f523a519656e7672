package usecase

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/pkg/utils"
)

var (
	linkAttrPattern       = regexp.MustCompile(`(?i)\b(?:href|src)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	attachmentPathPattern = regexp.MustCompile(`/download/attachments/(\d+)/([^/?#"']+)`)
)

// RewriteAttachmentLinks points attachment download links at their archive paths.
// Only matched attribute values change; the rest of the document is copied verbatim.
func RewriteAttachmentLinks(doc, pageID string, mapping entity.AttachmentMapping) string {
	if len(mapping) == 0 || !strings.Contains(doc, "/download/attachments/") {
		return doc
	}

	matches := linkAttrPattern.FindAllStringSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return doc
	}

	var b strings.Builder
	b.Grow(len(doc))
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		if start < 0 {
			continue
		}
		replacement, ok := resolveAttachmentLink(doc[start:end], pageID, mapping)
		if !ok {
			continue
		}
		b.WriteString(doc[last:start])
		b.WriteString(replacement)
		last = end
	}
	if last == 0 {
		return doc
	}
	b.WriteString(doc[last:])
	return b.String()
}

func resolveAttachmentLink(value, pageID string, mapping entity.AttachmentMapping) (string, bool) {
	m := attachmentPathPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	linkPageID, name := m[1], m[2]

	scopes := []string{linkPageID}
	if pageID != "" && pageID != linkPageID {
		scopes = append(scopes, pageID)
	}
	candidates := filenameCandidates(name)
	for _, scope := range scopes {
		for _, c := range candidates {
			if p, ok := mapping.Lookup(scope, c); ok {
				return p, true
			}
		}
	}
	return "", false
}

// filenameCandidates lists lookup keys in order: raw, decoded, sanitized.
func filenameCandidates(name string) []string {
	out := []string{name}
	decoded := html.UnescapeString(name)
	if d, err := url.QueryUnescape(decoded); err == nil {
		decoded = d
	}
	if decoded != name {
		out = append(out, decoded)
	}
	if s := utils.SanitizeAttachmentName(decoded); s != decoded && s != name {
		out = append(out, s)
	}
	return out
}
