package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename turns a page or attachment title into a safe file name.
// Letters, marks, digits, '_' and '-' are kept, each whitespace run becomes
// a single '_', every other rune becomes '_'. The result is stable:
// SanitizeFilename(SanitizeFilename(x)) == SanitizeFilename(x).
func SanitizeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return "page"
	}
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeAttachmentName sanitizes an attachment title like SanitizeFilename
// but keeps the last extension when it is made of letters and digits only,
// so "report.docx" stays "report.docx" and "Load Report.pdf" becomes
// "Load_Report.pdf".
func SanitizeAttachmentName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return SanitizeFilename(name)
	}
	ext := name[dot+1:]
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return SanitizeFilename(name)
		}
	}
	return SanitizeFilename(name[:dot]) + "." + ext
}

// IsSafePathComponent reports whether s can be used as a single directory
// or file name below a trusted root.
func IsSafePathComponent(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if r == 0 || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
