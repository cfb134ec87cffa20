// Package httpapi exposes the collector's HTTP endpoints: the email
// validation relay used by survey pages, field designation, the admin
// decryption tool, credit lookup and the embedded client scripts.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/commands"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/cache"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/ratelimit"
	"github.com/goliatone/go-survey-collector/pkg/settings"
)

// Route paths.
const (
	PathRelay        = "/zerobounce/validate"
	PathEmailField   = "/settings/email-field"
	PathPhoneField   = "/settings/phone-field"
	PathDecrypt      = "/admin/decrypt"
	PathCredits      = "/admin/zerobounce/credits"
	PathAssets       = "/assets/:name"
	PathMetrics      = "/metrics"
	SessionCookie    = "survey_collector_session"
	TimestampLayout  = "2006-01-02 15:04:05"
	actorContextKey  = "survey_collector_actor"
	sessionCookieTTL = 24 * time.Hour
)

// SettingsResolver returns the effective settings of a project. An empty
// project id yields the deployment-wide view.
type SettingsResolver interface {
	Resolve(ctx context.Context, projectID string) (settings.Settings, error)
}

// EmailService validates addresses and reports credits.
type EmailService interface {
	Validate(ctx context.Context, apiKey, email, ipAddress string) adapters.Result
	Credits(ctx context.Context, apiKey string) (int, bool)
}

// SessionStore hands out the session-scoped cache of a caller.
type SessionStore interface {
	Session(id string) cache.Cache
}

// Dependencies wires the server. Settings, Email, Sessions and Commands are required.
type Dependencies struct {
	Settings   SettingsResolver
	Email      EmailService
	Sessions   SessionStore
	Limiter    *ratelimit.Limiter
	Commands   *commands.Registry
	Authorizer host.Authorizer
	Activity   activity.Hooks
	Logger     logger.Logger
	// AllowedHosts extends the same-origin referrer check.
	AllowedHosts []string
	// TrustedProxies lists the proxies allowed to forward the client address.
	TrustedProxies []string
	Now            func() time.Time
}

// Server owns the gin engine.
type Server struct {
	deps     Dependencies
	engine   *gin.Engine
	validate *validator.Validate
	log      logger.Logger
}

// New validates dependencies and registers every route.
func New(deps Dependencies) (*Server, error) {
	if deps.Settings == nil {
		return nil, errors.New("httpapi: settings resolver is required")
	}
	if deps.Email == nil {
		return nil, errors.New("httpapi: email service is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("httpapi: session store is required")
	}
	if deps.Commands == nil {
		return nil, errors.New("httpapi: command registry is required")
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{
		deps:     deps,
		validate: validator.New(),
		log:      logger.OrNop(deps.Logger),
	}
	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Engine exposes the gin engine so hosts can mount extra routes.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("httpapi: trusted proxies: %w", err)
	}
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), s.requestLogger())
	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.POST(PathRelay, s.handleRelay)
	r.GET(PathAssets, s.handleAsset)
	r.GET(PathMetrics, gin.WrapH(promhttp.Handler()))

	admin := r.Group("/", s.requireAdmin())
	admin.POST(PathEmailField, s.handleEmailField)
	admin.POST(PathPhoneField, s.handlePhoneField)
	admin.POST(PathDecrypt, s.handleDecrypt)
	admin.GET(PathCredits, s.handleCredits)
	return r, nil
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}
