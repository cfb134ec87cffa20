package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-survey-collector/pkg/adapters/zerobounce"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
)

type relayRequest struct {
	PID   string `form:"pid" json:"pid"`
	Email string `form:"email" json:"email"`
}

// handleRelay validates one email for the browser. Checks run in order:
// origin, rate limit, enablement, API key, input, email syntax.
func (s *Server) handleRelay(c *gin.Context) {
	ctx := c.Request.Context()
	if !s.sameOrigin(c) {
		fail(c, http.StatusForbidden, "Invalid request origin")
		return
	}

	allowed, err := s.deps.Limiter.Allow(ctx, s.session(c), c.ClientIP())
	if err != nil {
		s.log.Error("httpapi: rate limit state unavailable", logger.Field{Key: "error", Value: err})
		allowed = true
	}
	if !allowed {
		fail(c, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var req relayRequest
	s.bind(c, &req)
	pid := strings.TrimSpace(req.PID)
	email := strings.TrimSpace(req.Email)

	cfg, err := s.deps.Settings.Resolve(ctx, pid)
	if err != nil {
		s.log.Error("httpapi: settings unavailable", logger.Field{Key: "project_id", Value: pid}, logger.Field{Key: "error", Value: err})
		fail(c, http.StatusInternalServerError, "Settings unavailable")
		return
	}
	if !cfg.Enabled {
		fail(c, http.StatusForbidden, "Module not enabled")
		return
	}
	if strings.TrimSpace(cfg.ZeroBounceAPIKey) == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "API key not configured"})
		return
	}
	if pid == "" || email == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Missing pid or email"})
		return
	}
	if err := s.validate.Var(email, "email"); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Invalid email format"})
		return
	}

	res := s.deps.Email.Validate(ctx, cfg.ZeroBounceAPIKey, email, c.ClientIP())
	if res == nil {
		s.log.Debug("httpapi: relay validation unavailable",
			logger.Field{Key: "project_id", Value: pid},
			logger.Field{Key: "email", Value: secrets.Mask(email)},
		)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Validation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": zerobounce.Relay(res)})
}
