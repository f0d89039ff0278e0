// Package common contains shared constants and sentinel errors used across
// medconb server components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// ScopeAuthenticated is granted to every identity recovered from a valid token.
const ScopeAuthenticated = "authenticated"

// ExternalIDPassword marks users whose credential is a local password.
const ExternalIDPassword = "password"

// CorrelationIDHeaderName is echoed back when a caller supplies it.
const CorrelationIDHeaderName = "X-Correlation-Id"
