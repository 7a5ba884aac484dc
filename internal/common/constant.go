// Package common contains shared constants and sentinel errors used across
// gophtodo components.
package common

const (
	// SessionCookieName is the cookie that carries the signed session token.
	SessionCookieName = "todo_session"

	// CSRFCookieName is the signed cookie store holding the anti-forgery token.
	CSRFCookieName = "todo_csrf"

	// CSRFHeaderName is the header every unsafe HTTP request must echo the
	// anti-forgery token in.
	CSRFHeaderName = "X-CSRF-Token"

	// SessionTokenMetadataKey is the gRPC metadata key used to carry the
	// session token on inbound requests.
	SessionTokenMetadataKey = "session_token"
)
