package populator

import (
	"context"
	"net/netip"
	"strings"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/adapters/numverify"
	"github.com/goliatone/go-survey-collector/pkg/adapters/zerobounce"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/ipcrypt"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/snapshot"
)

// EmailValidator validates one address; nil means skip.
type EmailValidator interface {
	Validate(ctx context.Context, apiKey, email, ipAddress string) adapters.Result
}

// PhoneValidator validates one phone number; nil means skip.
type PhoneValidator interface {
	Validate(ctx context.Context, accessKey, phone string) adapters.Result
}

// SubmitRequest describes one survey submission.
type SubmitRequest struct {
	Key        host.RecordKey
	Settings   settings.Settings
	Index      host.AnnotationIndex
	Record     map[string]string
	RemoteAddr string
	UserAgent  string
	Referrer   string
}

// Submitter runs the submission stage.
type Submitter struct {
	builder *snapshot.Builder
	email   EmailValidator
	phone   PhoneValidator
}

func NewSubmitter(builder *snapshot.Builder, email EmailValidator, phone PhoneValidator) *Submitter {
	if builder == nil {
		builder = snapshot.NewBuilder(nil)
	}
	return &Submitter{builder: builder, email: email, phone: phone}
}

// Submit resolves every bound value for the submitted record and stages at
// most one write. External calls run sequentially, once each.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) Effects {
	rec := NewRecorder()
	log := rec.With(
		logger.Field{Key: "project_id", Value: req.Key.ProjectID},
		logger.Field{Key: "record_id", Value: req.Key.RecordID},
		logger.Field{Key: "instrument", Value: req.Key.Instrument},
	)
	cfg := req.Settings

	bindings := capabilities.Merge(capabilities.ResolveAll(ctx, req.Index, req.Key.Instrument, log))
	if len(bindings) == 0 {
		log.Debug("populator: no tagged fields on instrument")
		return Effects{Logs: rec.Lines()}
	}

	var override string
	if cfg.DebugEditableIP {
		override = manualIP(bindings, req.Record, log)
	}
	snap := s.builder.Build(ctx, snapshot.Request{
		IPOverride:    override,
		RemoteAddr:    req.RemoteAddr,
		UserAgent:     req.UserAgent,
		Referrer:      req.Referrer,
		EncryptionKey: cfg.EncryptionKey,
		KeyVersion:    cfg.EncryptionKeyVersion,
		GeoEnabled:    cfg.GeolocationEnabled,
		GeoTimeout:    cfg.GeolocationTimeout,
	}, log)

	staged := map[string]string{}
	var emailBindings, phoneBindings []capabilities.FieldBinding
	for _, b := range bindings {
		switch capabilities.FamilyOf(b.DataOption) {
		case capabilities.FamilyEmail:
			emailBindings = append(emailBindings, b)
			continue
		case capabilities.FamilyPhone:
			phoneBindings = append(phoneBindings, b)
			continue
		}
		if v := snapshot.Value(snap, b.DataOption, log); v != "" {
			staged[b.FieldName] = v
		}
	}

	if res := s.validateEmail(ctx, cfg, req.Record, snap, emailBindings, log); res != nil {
		stage(staged, emailBindings, func(o capabilities.DataOption) string { return zerobounce.MapValue(o, res) })
	}
	if res := s.validatePhone(ctx, cfg, req.Record, phoneBindings, log); res != nil {
		stage(staged, phoneBindings, func(o capabilities.DataOption) string { return numverify.MapValue(o, res) })
	}

	if len(staged) == 0 {
		log.Debug("populator: nothing staged, skipping write")
		return Effects{Logs: rec.Lines()}
	}
	log.Debug("populator: staged fields", logger.Field{Key: "count", Value: len(staged)})
	return Effects{
		Write: &host.WriteRequest{Key: req.Key, Values: staged},
		Logs:  rec.Lines(),
	}
}

func (s *Submitter) validateEmail(ctx context.Context, cfg settings.Settings, record map[string]string, snap snapshot.Snapshot, bindings []capabilities.FieldBinding, log logger.Logger) adapters.Result {
	if !cfg.EmailValidationConfigured() {
		if len(bindings) > 0 {
			log.Debug("populator: email validation not configured")
		}
		return nil
	}
	if len(bindings) == 0 {
		return nil
	}
	email := strings.TrimSpace(record[cfg.ZeroBounceEmailField])
	if email == "" {
		log.Debug("populator: designated email field is empty", logger.Field{Key: "field", Value: cfg.ZeroBounceEmailField})
		return nil
	}
	if s.email == nil {
		log.Warn("populator: email validator not available")
		return nil
	}
	ip := snap[capabilities.OptionIPAddress]
	if ip == ipcrypt.Unknown {
		ip = ""
	}
	return s.email.Validate(ctx, cfg.ZeroBounceAPIKey, email, ip)
}

func (s *Submitter) validatePhone(ctx context.Context, cfg settings.Settings, record map[string]string, bindings []capabilities.FieldBinding, log logger.Logger) adapters.Result {
	if !cfg.PhoneValidationConfigured() {
		if len(bindings) > 0 {
			log.Debug("populator: phone validation not configured")
		}
		return nil
	}
	if len(bindings) == 0 {
		return nil
	}
	phone := strings.TrimSpace(record[cfg.NumverifyPhoneField])
	if phone == "" {
		log.Debug("populator: designated phone field is empty", logger.Field{Key: "field", Value: cfg.NumverifyPhoneField})
		return nil
	}
	if s.phone == nil {
		log.Warn("populator: phone validator not available")
		return nil
	}
	return s.phone.Validate(ctx, cfg.NumverifyAPIKey, phone)
}

func stage(staged map[string]string, bindings []capabilities.FieldBinding, value func(capabilities.DataOption) string) {
	for _, b := range bindings {
		if v := value(b.DataOption); v != "" {
			staged[b.FieldName] = v
		}
	}
}

// manualIP returns the first valid address typed into an IP field.
func manualIP(bindings []capabilities.FieldBinding, record map[string]string, log logger.Logger) string {
	for _, b := range bindings {
		if b.DataOption != capabilities.OptionIPAddress {
			continue
		}
		raw := strings.TrimSpace(record[b.FieldName])
		if raw == "" || raw == ipcrypt.Unknown {
			continue
		}
		if _, err := netip.ParseAddr(raw); err != nil {
			log.Warn("populator: ignoring invalid manual ip", logger.Field{Key: "field", Value: b.FieldName})
			continue
		}
		log.Debug("populator: using manual ip", logger.Field{Key: "ip", Value: secrets.Mask(raw)})
		return raw
	}
	return ""
}
