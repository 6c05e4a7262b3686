package utils

import (
	"time"
)

// Context keys for request-scoped values
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for operator access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for operator refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Campaign customization limits
const (
	// MaxExtraMediaItems caps the additional media a tenant can attach to a binding
	MaxExtraMediaItems = 10

	// MaxCustomQuestions caps the tenant-defined questions on an entry form
	MaxCustomQuestions = 5

	// WinnerSelectionMethodRandom is the only selection method this core performs
	WinnerSelectionMethodRandom = "random"

	// StatsWindowDays is the daily-count window returned by entry stats
	StatsWindowDays = 30
)
