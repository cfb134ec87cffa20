package adapters

import (
	"time"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// BaseAdapter carries the logger shared by provider clients.
type BaseAdapter struct {
	logger logger.Logger
}

func NewBaseAdapter(l logger.Logger) BaseAdapter {
	return BaseAdapter{logger: logger.OrNop(l)}
}

// Logger exposes the adapter logger for structured diagnostics.
func (b BaseAdapter) Logger() logger.Logger {
	return logger.OrNop(b.logger)
}

// LogCall records one provider call. Provider-declared failures (bad key,
// exhausted credits) are warnings; transport and protocol failures are
// errors. target must already be redacted.
func (b BaseAdapter) LogCall(integration, target, outcome string, elapsed time.Duration, err error) {
	fields := []logger.Field{
		{Key: "integration", Value: integration},
		{Key: "target", Value: target},
		{Key: "outcome", Value: outcome},
		{Key: "elapsed_ms", Value: elapsed.Milliseconds()},
	}
	l := b.Logger()
	switch {
	case err == nil:
		l.Debug("integration call succeeded", fields...)
	case outcome == OutcomeProviderError:
		l.Warn("integration reported failure", append(fields, logger.Field{Key: "error", Value: err})...)
	default:
		l.Error("integration call failed", append(fields, logger.Field{Key: "error", Value: err})...)
	}
}
