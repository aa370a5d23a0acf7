package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeURL lowercases the host and drops a trailing slash from the path. The scheme the
// caller gave is kept; a bare host gets https. Values that are not http(s) URLs come back
// trimmed but otherwise untouched so validation can reject them.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(raw, "://") {
		// mailto:, javascript: and the like
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
			return raw
		}
		candidate = "https://" + raw
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return raw
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
