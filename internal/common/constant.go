package common

import "time"

const (
	// SessionCookieName is the cookie carrying the raw session token.
	SessionCookieName = "sessionToken"

	// AuthorizationHeaderName and BearerPrefix describe the header form of
	// the same token. The header wins when both are present.
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "

	// DefaultSessionTTL is how long an issued session stays valid.
	DefaultSessionTTL = 24 * time.Hour
)
