// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements session authentication. Protected routes accept a
// session token either as "Authorization: Bearer <token>" or in the
// "session" cookie set at login. The token is resolved server-side to the
// participant identity, which is stored in the Gin context under "userID"
// for handlers, the access log, and the rate limiter.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// SessionCookie is the cookie carrying the session token.
	SessionCookie = "session"

	userIDKey       = "userID"
	sessionTokenKey = "sessionToken"
)

// ErrInvalidSession is what a SessionResolver returns for a token that is
// unknown, expired, or revoked. Any other error is treated as a server fault.
var ErrInvalidSession = errors.New("invalid session")

// SessionResolver maps a presented token to a participant identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// SessionResolverFunc adapts a function to SessionResolver.
type SessionResolverFunc func(ctx context.Context, token string) (string, error)

// Resolve calls f.
func (f SessionResolverFunc) Resolve(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

var authFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_auth_failures_total",
		Help: "Requests rejected by session authentication.",
	},
	[]string{"reason"},
)

func init() {
	prometheus.MustRegister(authFailures)
}

// RequireSession rejects requests without a valid session with 401 and
// otherwise sets the caller's identity in the context.
//
// isUnauthorized classifies resolver errors; nil means errors.Is against
// ErrInvalidSession.
func RequireSession(resolver SessionResolver, isUnauthorized func(error) bool) gin.HandlerFunc {
	if isUnauthorized == nil {
		isUnauthorized = func(err error) bool { return errors.Is(err, ErrInvalidSession) }
	}
	return func(c *gin.Context) {
		token := TokenFrom(c)
		if token == "" {
			authFailures.WithLabelValues("missing").Inc()
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing session token")
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
		case isUnauthorized(err):
			authFailures.WithLabelValues("invalid").Inc()
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
			return
		default:
			LoggerFrom(c).Error().Err(err).Msg("session lookup failed")
			abortAuth(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}

		c.Set(userIDKey, identity)
		c.Set(sessionTokenKey, token)
		c.Next()
	}
}

// TokenFrom extracts the session token from the Authorization header or,
// failing that, the session cookie.
func TokenFrom(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		scheme, rest, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(rest)
		}
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// UserID returns the identity set by RequireSession, or "".
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

// SessionToken returns the token RequireSession accepted, or "".
func SessionToken(c *gin.Context) string {
	v, _ := c.Get(sessionTokenKey)
	return asString(v)
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
