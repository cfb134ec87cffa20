// Package hooks maps host events onto the population pipeline. Every entry
// point is a function of HostContext that returns populator.Effects; the
// host applies them with Apply.
package hooks

import (
	"context"
	"fmt"

	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/populator"
	"github.com/goliatone/go-survey-collector/pkg/settings"
	"github.com/goliatone/go-survey-collector/pkg/snapshot"
)

// HostContext is what the host knows when it fires an event.
type HostContext struct {
	Key      host.RecordKey
	Settings settings.Settings
	Index    host.AnnotationIndex
	// Record holds submitted values. When nil, SurveyComplete reads them
	// through Reader.
	Record     map[string]string
	Reader     host.RecordReader
	RemoteAddr string
	UserAgent  string
	Referrer   string
	// RelayURL is the email validation endpoint handed to the browser.
	RelayURL string
}

// SnippetRenderer turns a render payload into injectable HTML.
type SnippetRenderer interface {
	Snippet(payload any) (string, error)
}

// Hooks holds the collaborators shared by every event. It carries no
// per-request state.
type Hooks struct {
	builder   *snapshot.Builder
	submitter *populator.Submitter
	renderer  SnippetRenderer
}

type Option func(*Hooks)

func WithBuilder(b *snapshot.Builder) Option {
	return func(h *Hooks) {
		if b != nil {
			h.builder = b
		}
	}
}

func WithSubmitter(s *populator.Submitter) Option {
	return func(h *Hooks) {
		if s != nil {
			h.submitter = s
		}
	}
}

func WithRenderer(r SnippetRenderer) Option {
	return func(h *Hooks) {
		if r != nil {
			h.renderer = r
		}
	}
}

func New(opts ...Option) *Hooks {
	h := &Hooks{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.builder == nil {
		h.builder = snapshot.NewBuilder(nil)
	}
	if h.submitter == nil {
		h.submitter = populator.NewSubmitter(h.builder, nil, nil)
	}
	return h
}

// PageTop runs the render phase for the instrument being displayed.
func (h *Hooks) PageTop(ctx context.Context, hc HostContext) (eff populator.Effects) {
	rec := populator.NewRecorder()
	log := scoped(rec, hc)
	defer recoverInto("page_top", rec, &eff)

	bindings := capabilities.ResolveAll(ctx, hc.Index, hc.Key.Instrument, log)
	if len(bindings) == 0 {
		log.Debug("hooks: no tagged fields, nothing injected")
		return populator.Effects{Logs: rec.Lines()}
	}

	cfg := hc.Settings
	snap := h.builder.Build(ctx, snapshot.Request{
		RemoteAddr:    hc.RemoteAddr,
		UserAgent:     hc.UserAgent,
		Referrer:      hc.Referrer,
		EncryptionKey: cfg.EncryptionKey,
		KeyVersion:    cfg.EncryptionKeyVersion,
		GeoEnabled:    cfg.GeolocationEnabled,
		GeoTimeout:    cfg.GeolocationTimeout,
	}, log)

	payload := populator.Render(bindings, snap, log)
	payload.ZeroBounce = populator.RelayConfig{
		Enabled:    cfg.EmailValidationConfigured(),
		EmailField: cfg.ZeroBounceEmailField,
		AjaxURL:    hc.RelayURL,
		PID:        hc.Key.ProjectID,
	}
	log.Debug("hooks: survey data collection",
		logger.Field{Key: "bindings", Value: len(bindings)},
		logger.Field{Key: "geolocation", Value: cfg.GeolocationEnabled},
	)

	eff.Payload = payload
	if h.renderer == nil {
		log.Warn("hooks: no snippet renderer configured")
	} else if snippet, err := h.renderer.Snippet(payload); err != nil {
		log.Error("hooks: snippet rendering failed", logger.Field{Key: "error", Value: err})
	} else {
		eff.Snippet = snippet
	}
	eff.Logs = rec.Lines()
	return eff
}

// SurveyComplete runs the submission phase for the saved record.
func (h *Hooks) SurveyComplete(ctx context.Context, hc HostContext) (eff populator.Effects) {
	rec := populator.NewRecorder()
	log := scoped(rec, hc)
	defer recoverInto("survey_complete", rec, &eff)

	record := hc.Record
	if record == nil && hc.Reader != nil {
		values, err := hc.Reader.ReadRecord(ctx, hc.Key)
		if err != nil {
			log.Error("hooks: record read failed", logger.Field{Key: "error", Value: err})
		}
		record = values
	}

	out := h.submitter.Submit(ctx, populator.SubmitRequest{
		Key:        hc.Key,
		Settings:   hc.Settings,
		Index:      hc.Index,
		Record:     record,
		RemoteAddr: hc.RemoteAddr,
		UserAgent:  hc.UserAgent,
		Referrer:   hc.Referrer,
	})
	out.Logs = append(rec.Lines(), out.Logs...)
	return out
}

func scoped(rec *populator.Recorder, hc HostContext) logger.Logger {
	return rec.With(
		logger.Field{Key: "project_id", Value: hc.Key.ProjectID},
		logger.Field{Key: "instrument", Value: hc.Key.Instrument},
	)
}

func recoverInto(hook string, rec *populator.Recorder, eff *populator.Effects) {
	if r := recover(); r != nil {
		rec.Error("hooks: recovered from panic",
			logger.Field{Key: "hook", Value: hook},
			logger.Field{Key: "panic", Value: fmt.Sprint(r)},
		)
		*eff = populator.Effects{Logs: rec.Lines()}
	}
}
