package app

import (
	"net/url"
	"strings"
)

// normalizeDBURL sets sslmode for lib/pq when the URL does not carry one.
func normalizeDBURL(raw, sslMode string) string {
	raw = strings.TrimSpace(raw)
	sslMode = strings.TrimSpace(sslMode)
	if raw == "" || sslMode == "" {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		query := parsed.Query()
		if query.Get("sslmode") == "" {
			query.Set("sslmode", sslMode)
			parsed.RawQuery = query.Encode()
		}
		return parsed.String()
	}

	for _, token := range strings.Fields(raw) {
		if strings.HasPrefix(token, "sslmode=") {
			return raw
		}
	}
	return raw + " sslmode=" + sslMode
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
