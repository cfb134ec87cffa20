package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/cache"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// ErrUnauthorized is returned by authorizers for unknown credentials.
var ErrUnauthorized = errors.New("httpapi: unauthorized")

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.deps.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Next()
		s.log.Debug("httpapi: request",
			logger.Field{Key: "request_id", Value: requestID},
			logger.Field{Key: "method", Value: c.Request.Method},
			logger.Field{Key: "path", Value: c.FullPath()},
			logger.Field{Key: "status", Value: c.Writer.Status()},
			logger.Field{Key: "duration", Value: s.deps.Now().Sub(start).String()},
		)
	}
}

// requireAdmin accepts "Authorization: Bearer <token>" or X-Admin-Token.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.Authorizer == nil {
			fail(c, http.StatusForbidden, "Admin access required")
			return
		}
		credential := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if auth := c.GetHeader("Authorization"); credential == "" && strings.HasPrefix(auth, "Bearer ") {
			credential = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		if credential == "" {
			fail(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		actor, err := s.deps.Authorizer.AuthorizeAdmin(c.Request.Context(), credential)
		if err != nil {
			s.log.Warn("httpapi: admin authorization rejected", logger.Field{Key: "path", Value: c.FullPath()})
			fail(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func actorOf(c *gin.Context) string {
	return c.GetString(actorContextKey)
}

// sameOrigin accepts an empty referrer; otherwise its host must match the
// request host or one of the allowed hosts.
func (s *Server) sameOrigin(c *gin.Context) bool {
	ref := strings.TrimSpace(c.Request.Referer())
	if ref == "" {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	candidates := append([]string{c.Request.Host}, s.deps.AllowedHosts...)
	for _, h := range candidates {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if strings.EqualFold(u.Host, h) || strings.EqualFold(u.Hostname(), hostname(h)) {
			return true
		}
	}
	return false
}

func hostname(hostport string) string {
	if u, err := url.Parse("//" + hostport); err == nil {
		return u.Hostname()
	}
	return hostport
}

// bind decodes the request into req. A body that does not decode leaves
// req empty so the handler reports the missing input.
func (s *Server) bind(c *gin.Context, req any) {
	if err := c.ShouldBind(req); err != nil {
		s.log.Debug("httpapi: request body not bound",
			logger.Field{Key: "path", Value: c.FullPath()},
			logger.Field{Key: "error", Value: err},
		)
	}
}

// session returns the caller's session cache, issuing a cookie on first use.
func (s *Server) session(c *gin.Context) cache.Cache {
	id, err := c.Cookie(SessionCookie)
	if err != nil || strings.TrimSpace(id) == "" {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, int(sessionCookieTTL/time.Second), "/", "", c.Request.TLS != nil, true)
	}
	return s.deps.Sessions.Session(id)
}

// StaticAuthorizer maps admin tokens to actor ids.
type StaticAuthorizer map[string]string

func (a StaticAuthorizer) AuthorizeAdmin(_ context.Context, credential string) (string, error) {
	for token, actor := range a {
		if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(credential)) == 1 {
			return actor, nil
		}
	}
	return "", ErrUnauthorized
}
