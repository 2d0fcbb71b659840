package fetch

import (
	"net/http"
	"net/url"
	"strings"
)

// BrowserHeaders sets the full header set of a real desktop browser on req.
// The listing origin rejects requests that look like scripted clients, so
// everything a navigating browser would send is included. A non-empty
// referer additionally marks the request as same-origin navigation.
func BrowserHeaders(req *http.Request, userAgent, referer string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("DNT", "1")

	if referer != "" {
		req.Header.Set("Referer", referer)
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	} else {
		req.Header.Set("Sec-Fetch-Site", "none")
	}
}

// HighLoadPath reports whether rawURL's path contains segment as a whole
// path element. Matching is structural, not substring: "/node/123" is
// high-load for segment "node", "/nodes/123" is not.
func HighLoadPath(rawURL, segment string) bool {
	if segment == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(u.Path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
