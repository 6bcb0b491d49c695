package middleware

import (
	"crypto/subtle"
	"net/http"
)

// TokenHeader carries the JSON endpoint token.
const TokenHeader = "X-API-TOKEN"

// TokenMatches compares a presented token against the configured one.
// An empty configured token never matches.
func TokenMatches(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// RequestToken returns the token of the "token" query parameter, or of the
// X-API-TOKEN header.
func RequestToken(req *http.Request) string {
	if t := req.URL.Query().Get("token"); t != "" {
		return t
	}
	return req.Header.Get(TokenHeader)
}
