package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	principalKey = "auth.principal"
	csrfKey      = "csrf_token"
)

func requestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		l.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// requireSession resolves the session cookie into a services.Principal and
// stores it on the gin context for the handler.
func (h *handlers) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(common.SessionCookieName)

		p, err := h.guard.Authenticate(c.Request.Context(), token)
		if err != nil {
			if token != "" {
				h.clearSessionCookie(c)
			}
			h.abortWithError(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

func principal(c *gin.Context) services.Principal {
	p, _ := c.MustGet(principalKey).(services.Principal)
	return p
}

// verifyCSRF rejects unsafe requests whose X-CSRF-Token header does not match
// the token stored in the signed anti-forgery cookie.
func verifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		expected, ok := sessions.Default(c).Get(csrfKey).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Code: "CSRF_MISSING", Message: "The CSRF token is missing."})
			return
		}

		received := c.GetHeader(common.CSRFHeaderName)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Code: "CSRF_INVALID", Message: "The CSRF tokens do not match."})
			return
		}

		c.Next()
	}
}

// ensureCSRFToken returns the browser's anti-forgery token, creating one if
// needed. rotate forces a fresh token.
func ensureCSRFToken(c *gin.Context, rotate bool) (string, error) {
	session := sessions.Default(c)
	if token, ok := session.Get(csrfKey).(string); ok && token != "" && !rotate {
		return token, nil
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}
	session.Set(csrfKey, token)
	if err := session.Save(); err != nil {
		return "", err
	}
	return token, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
