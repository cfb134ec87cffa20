package populator

import (
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/snapshot"
)

// ClientConfig is one binding as handed to the browser.
type ClientConfig struct {
	FieldName  string                  `json:"field_name"`
	DataOption capabilities.DataOption `json:"data_option"`
	Value      *string                 `json:"value,omitempty"`
	Overwrite  bool                    `json:"overwrite"`
	Defer      bool                    `json:"defer,omitempty"`
}

// RelayConfig configures the in-page email validation relay.
type RelayConfig struct {
	Enabled    bool   `json:"enabled"`
	EmailField string `json:"emailField"`
	AjaxURL    string `json:"ajaxUrl"`
	PID        string `json:"pid"`
}

// ClientPayload is the configuration object injected into the rendered page.
type ClientPayload struct {
	Configs    []ClientConfig `json:"configs"`
	ZeroBounce RelayConfig    `json:"zerobounce"`
}

// Render attaches snapshot values to non-deferred bindings. Deferred
// bindings carry no value and are flagged so the browser skips them.
// No bindings means no payload.
func Render(bindings []capabilities.FieldBinding, snap snapshot.Snapshot, log logger.Logger) *ClientPayload {
	if len(bindings) == 0 {
		return nil
	}
	payload := &ClientPayload{Configs: make([]ClientConfig, 0, len(bindings))}
	for _, b := range bindings {
		cfg := ClientConfig{
			FieldName:  b.FieldName,
			DataOption: b.DataOption,
			Overwrite:  b.Overwrite,
		}
		if b.Defer {
			cfg.Defer = true
		} else {
			v := snapshot.Value(snap, b.DataOption, log)
			cfg.Value = &v
		}
		payload.Configs = append(payload.Configs, cfg)
	}
	return payload
}
