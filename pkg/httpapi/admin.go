package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-survey-collector/pkg/activity"
	"github.com/goliatone/go-survey-collector/pkg/assets"
	"github.com/goliatone/go-survey-collector/pkg/commands"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/ipcrypt"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
)

const (
	msgNoEncryptionKey  = "Encryption key not configured in system settings"
	msgDecryptionFailed = "Decryption failed. The encryption key may have changed or the encrypted string is invalid."
)

type designationRequest struct {
	PID        string `form:"pid" json:"pid"`
	Field      string `form:"field" json:"field"`
	EmailField string `form:"email_field" json:"email_field"`
	PhoneField string `form:"phone_field" json:"phone_field"`
}

func (r designationRequest) field(alias string) string {
	if f := strings.TrimSpace(r.Field); f != "" {
		return f
	}
	return strings.TrimSpace(alias)
}

func (s *Server) handleEmailField(c *gin.Context) {
	var req designationRequest
	s.bind(c, &req)
	field := req.field(req.EmailField)
	err := s.deps.Commands.DesignateEmailField.Execute(c.Request.Context(), commands.DesignateEmailField{
		ProjectID: req.PID,
		Field:     field,
		ActorID:   actorOf(c),
	})
	s.designated(c, field, "Missing pid or email_field", err)
}

func (s *Server) handlePhoneField(c *gin.Context) {
	var req designationRequest
	s.bind(c, &req)
	field := req.field(req.PhoneField)
	err := s.deps.Commands.DesignatePhoneField.Execute(c.Request.Context(), commands.DesignatePhoneField{
		ProjectID: req.PID,
		Field:     field,
		ActorID:   actorOf(c),
	})
	s.designated(c, field, "Missing pid or phone_field", err)
}

func (s *Server) designated(c *gin.Context, field, missing string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "field": field})
	case errors.Is(err, commands.ErrProjectRequired), errors.Is(err, commands.ErrFieldRequired):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": missing})
	default:
		s.log.Error("httpapi: field designation failed", logger.Field{Key: "error", Value: err})
		fail(c, http.StatusInternalServerError, "Could not save setting")
	}
}

type decryptRequest struct {
	EncryptedIP string `form:"encrypted_ip" json:"encrypted_ip"`
}

// handleDecrypt reverses an encrypted IP. A key-version mismatch is logged
// and never blocks decryption.
func (s *Server) handleDecrypt(c *gin.Context) {
	ctx := c.Request.Context()
	var req decryptRequest
	s.bind(c, &req)
	raw := strings.TrimSpace(req.EncryptedIP)
	if raw == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "No encrypted IP provided"})
		return
	}

	cfg, err := s.deps.Settings.Resolve(ctx, "")
	if err != nil {
		s.log.Error("httpapi: settings unavailable", logger.Field{Key: "error", Value: err})
		fail(c, http.StatusInternalServerError, "Settings unavailable")
		return
	}
	cipher, err := ipcrypt.New(cfg.EncryptionKey, cfg.EncryptionKeyVersion)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": msgNoEncryptionKey})
		return
	}

	ip, value, err := cipher.DecryptString(raw)
	if err != nil {
		s.log.Error("httpapi: ip decryption failed",
			logger.Field{Key: "key_version", Value: value.Version},
			logger.Field{Key: "error", Value: err},
		)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": msgDecryptionFailed})
		return
	}
	if value.Version != cipher.Version() && value.Version != ipcrypt.UnknownVersion {
		s.log.Warn("httpapi: decryption with mismatched key version",
			logger.Field{Key: "provided", Value: value.Version},
			logger.Field{Key: "current", Value: cipher.Version()},
		)
	}

	actor := actorOf(c)
	s.log.Info("httpapi: ip address decrypted",
		logger.Field{Key: "actor", Value: actor},
		logger.Field{Key: "key_version", Value: value.Version},
		logger.Field{Key: "ip", Value: secrets.Mask(ip)},
	)
	s.deps.Activity.Notify(ctx, activity.Event{
		Verb:       activity.VerbIPDecrypted,
		ActorID:    actor,
		ObjectType: "encrypted_ip",
		ObjectID:   value.Version,
		Metadata: map[string]any{
			"key_version":     value.Version,
			"current_version": cipher.Version(),
			"ip_address":      secrets.Mask(ip),
		},
	})

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"ip_address":  ip,
		"key_version": value.Version,
		"timestamp":   s.deps.Now().Format(TimestampLayout),
	})
}

func (s *Server) handleCredits(c *gin.Context) {
	ctx := c.Request.Context()
	pid := strings.TrimSpace(c.Query("pid"))
	cfg, err := s.deps.Settings.Resolve(ctx, pid)
	if err != nil {
		s.log.Error("httpapi: settings unavailable", logger.Field{Key: "error", Value: err})
		fail(c, http.StatusInternalServerError, "Settings unavailable")
		return
	}
	if strings.TrimSpace(cfg.ZeroBounceAPIKey) == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "ZeroBounce API key not configured for this project."})
		return
	}
	credits, ok := s.deps.Email.Credits(ctx, cfg.ZeroBounceAPIKey)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Unable to retrieve ZeroBounce credits. Please verify the API key and network connectivity."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "credits": credits})
}

func (s *Server) handleAsset(c *gin.Context) {
	name := c.Param("name")
	data, err := assets.Read(name)
	if err != nil {
		fail(c, http.StatusNotFound, "Not found")
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, assets.ContentType(name), data)
}
