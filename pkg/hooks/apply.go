package hooks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/populator"
)

// Sinks are the host side effects Apply may use. Nil sinks are skipped.
type Sinks struct {
	Writer  host.RecordWriter
	Mutator host.MetadataMutator
	// Page receives the injection snippet.
	Page   io.Writer
	Logger logger.Logger
	// Debug replays debug lines recorded by the hooks.
	Debug bool
}

// Outcome summarises what Apply did.
type Outcome struct {
	Written     []string
	WriteErrors []string
	Annotated   int
	Injected    bool
}

// Apply performs effects against the host. Failures are logged in full and
// never returned; values the host already wrote are kept.
func Apply(ctx context.Context, eff populator.Effects, sinks Sinks) (out Outcome) {
	log := logger.OrNop(sinks.Logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("hooks: recovered from panic while applying effects", logger.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()

	populator.Replay(eff.Logs, log, sinks.Debug)

	if eff.Snippet != "" {
		if sinks.Page == nil {
			log.Warn("hooks: snippet produced without a page sink")
		} else if _, err := io.WriteString(sinks.Page, eff.Snippet); err != nil {
			log.Error("hooks: snippet injection failed", logger.Field{Key: "error", Value: err})
		} else {
			out.Injected = true
		}
	}

	for _, a := range eff.Annotations {
		if sinks.Mutator == nil {
			log.Warn("hooks: annotation changes dropped, no metadata mutator")
			break
		}
		if err := sinks.Mutator.SetAnnotation(ctx, a.ProjectID, a.FieldName, a.Annotation); err != nil {
			log.Error("hooks: annotation update failed",
				logger.Field{Key: "field", Value: a.FieldName},
				logger.Field{Key: "error", Value: err},
			)
			continue
		}
		out.Annotated++
	}

	if eff.Write != nil {
		out.Written, out.WriteErrors = write(ctx, *eff.Write, sinks.Writer, log)
	}
	return out
}

func write(ctx context.Context, req host.WriteRequest, writer host.RecordWriter, log logger.Logger) ([]string, []string) {
	if writer == nil {
		log.Error("hooks: staged values dropped, no record writer", logger.Field{Key: "record_id", Value: req.Key.RecordID})
		return nil, nil
	}
	res, err := writer.WriteRecord(ctx, req)
	if err != nil {
		log.Error("hooks: record write failed",
			logger.Field{Key: "record_id", Value: req.Key.RecordID},
			logger.Field{Key: "error", Value: err},
		)
		return res.Written, append(res.Errors, err.Error())
	}
	if len(res.Errors) > 0 {
		log.Error("hooks: record write reported errors",
			logger.Field{Key: "record_id", Value: req.Key.RecordID},
			logger.Field{Key: "errors", Value: strings.Join(res.Errors, "; ")},
		)
	} else {
		log.Debug("hooks: record written",
			logger.Field{Key: "record_id", Value: req.Key.RecordID},
			logger.Field{Key: "fields", Value: len(res.Written)},
		)
	}
	return res.Written, res.Errors
}
