package constants

// Session / context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "current_user"
)

// Pagination
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const MinPasswordLength = 8

// Session lifetime in seconds (7 days).
const SessionMaxAge = 86400 * 7
