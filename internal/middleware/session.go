package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/logger"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved wizard session.
const ContextSessionKey = "enrollmentSession"

// SessionHeader carries the session token for clients that do not keep cookies.
const SessionHeader = "X-Enrollment-Session"

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	Secure     bool
}

// Session resolves the caller's wizard session, starting a new one when the token is
// missing or invalid. New tokens are set as a cookie and echoed in SessionHeader.
func Session(sessions *service.SessionService, opts SessionOptions) gin.HandlerFunc {
	if opts.CookieName == "" {
		opts.CookieName = "enrollment_session"
	}
	return func(c *gin.Context) {
		token := c.GetHeader(SessionHeader)
		if token == "" {
			if cookie, err := c.Cookie(opts.CookieName); err == nil {
				token = cookie
			}
		}

		session, newToken, err := sessions.Resolve(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if newToken != "" {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.CookieName, newToken, int(sessions.TTL().Seconds()), "/", "", opts.Secure, true)
			c.Header(SessionHeader, newToken)
		}

		c.Set(ContextSessionKey, session)
		c.Set(logger.SessionContextKey, session.ID)
		c.Next()
	}
}

// SessionFromContext returns the session attached by Session.
func SessionFromContext(c *gin.Context) *service.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*service.Session)
	if !ok {
		return nil
	}
	return session
}
