package observability

import "strings"

// Values copied from requests into log fields pass through logField so a
// crafted header or path cannot inject newlines or control bytes into the
// log stream.
func logField(value string, limit int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, value)
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

func logRoute(route string) string {
	if route == "" {
		return "/"
	}
	return logField(route, 180)
}

func logMethod(method string) string {
	return logField(method, 10)
}

func logUserID(uid string) string {
	return logField(uid, 64)
}
