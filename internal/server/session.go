package server

import (
	"net/http"
	"strings"
)

// sessionID picks the caller's session id from the request body, then the
// X-Session-Id header, then the session_id query parameter. An empty result
// lets the assistant mint a new id.
func sessionID(r *http.Request, fromBody string) string {
	if sid := strings.TrimSpace(fromBody); sid != "" {
		return sid
	}
	if sid := strings.TrimSpace(r.Header.Get("X-Session-Id")); sid != "" {
		return sid
	}
	return strings.TrimSpace(r.URL.Query().Get("session_id"))
}

// parseLanguage maps the request language to a supported one; empty means
// Persian.
func parseLanguage(lang string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "fa":
		return "fa", true
	case "en":
		return "en", true
	}
	return "", false
}
