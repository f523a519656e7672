package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL resolves ref against base. Absolute refs are returned as is,
// root-relative refs are appended to base so that a base path such as /wiki is kept.
func ToAbsoluteURL(base, ref string) (string, error) {
	relURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if relURL.IsAbs() {
		return relURL.String(), nil
	}
	if strings.HasPrefix(ref, "/") {
		return strings.TrimSuffix(base, "/") + ref, nil
	}
	baseURL, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(relURL).String(), nil
}
